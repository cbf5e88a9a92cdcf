package knowledge

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eyasluna999/wertigo/internal/types"
)

const (
	// DefaultSimilarityThreshold is the Jaccard cutoff for FindSimilarCached;
	// a match must score strictly above it.
	DefaultSimilarityThreshold = 0.8

	preferenceTopN      = 3
	sentimentTrendTurns = 3
)

type cacheEntry struct {
	result    *types.RecommendResponse
	timestamp time.Time
	hits      int
}

type sessionRecord struct {
	createdAt time.Time
	values    map[string]any
}

type queryRecord struct {
	query      string
	normalized string
	timestamp  time.Time
	sessionID  string
}

// Store is the process-local session and query-cache memory. It offers no
// persistence guarantee across restarts. All maps are guarded by a single
// mutex; concurrent requests for the same session must not corrupt counters
// or interleave partial conversation turns.
type Store struct {
	mu sync.Mutex

	logger     *slog.Logger
	now        func() time.Time
	maxSize    int
	ttl        time.Duration
	sessionTTL time.Duration

	cache            map[string]*cacheEntry
	queryHistory     []queryRecord
	categoryPrefs    map[string]map[string]int
	cityPrefs        map[string]map[string]int
	sessions         map[string]*sessionRecord
	conversations    map[string][]types.ConversationTurn
	sentimentTrail   map[string][]float64
	topicTransitions map[string][]types.TopicTransition
}

// NewStore builds a context store bounded to maxSize cached queries, with
// cache entries expiring after ttl of inactivity and session records after
// sessionTTL.
func NewStore(maxSize int, ttl, sessionTTL time.Duration, logger *slog.Logger) *Store {
	return &Store{
		logger:           logger,
		now:              time.Now,
		maxSize:          maxSize,
		ttl:              ttl,
		sessionTTL:       sessionTTL,
		cache:            make(map[string]*cacheEntry),
		categoryPrefs:    make(map[string]map[string]int),
		cityPrefs:        make(map[string]map[string]int),
		sessions:         make(map[string]*sessionRecord),
		conversations:    make(map[string][]types.ConversationTurn),
		sentimentTrail:   make(map[string][]float64),
		topicTransitions: make(map[string][]types.TopicTransition),
	}
}

// WithClock replaces the store's time source. Intended for TTL tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// RecordQuery caches a result under the normalized query, bumps per-session
// preference counters from the returned recommendations, and appends to the
// query history. When the cache is full the entry with the oldest timestamp
// is evicted first.
func (s *Store) RecordQuery(sessionID, query string, result *types.RecommendResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := NormalizeQuery(query)
	now := s.now()

	if len(s.cache) >= s.maxSize {
		oldestKey := ""
		var oldest time.Time
		for key, entry := range s.cache {
			if oldestKey == "" || entry.timestamp.Before(oldest) {
				oldestKey = key
				oldest = entry.timestamp
			}
		}
		delete(s.cache, oldestKey)
	}

	s.cache[normalized] = &cacheEntry{result: result, timestamp: now, hits: 1}

	if sessionID != "" && result != nil {
		for _, rec := range result.Recommendations {
			if rec.Category != "" {
				if s.categoryPrefs[sessionID] == nil {
					s.categoryPrefs[sessionID] = make(map[string]int)
				}
				s.categoryPrefs[sessionID][rec.Category]++
			}
			if rec.City != "" {
				if s.cityPrefs[sessionID] == nil {
					s.cityPrefs[sessionID] = make(map[string]int)
				}
				s.cityPrefs[sessionID][rec.City]++
			}
		}
	}

	s.queryHistory = append(s.queryHistory, queryRecord{
		query:      query,
		normalized: normalized,
		timestamp:  now,
		sessionID:  sessionID,
	})
}

// GetCachedResult returns a previously cached result for the normalized
// query, or nil. Expired entries are evicted lazily here; live entries get
// their hit count and timestamp bumped.
func (s *Store) GetCachedResult(query string) *types.RecommendResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := NormalizeQuery(query)
	entry, ok := s.cache[normalized]
	if !ok {
		return nil
	}
	now := s.now()
	if now.Sub(entry.timestamp) > s.ttl {
		delete(s.cache, normalized)
		return nil
	}
	entry.hits++
	entry.timestamp = now
	return entry.result
}

// FindSimilarCached scans every cached normalized query with Jaccard word
// overlap and returns the best match only when its score is strictly
// greater than threshold.
func (s *Store) FindSimilarCached(query string, threshold float64) *types.RecommendResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	queryWords := toWordSet(NormalizeQuery(query))
	if len(queryWords) == 0 {
		return nil
	}

	bestScore := threshold
	var best *cacheEntry
	for cachedQuery, entry := range s.cache {
		cachedWords := toWordSet(cachedQuery)
		if len(cachedWords) == 0 {
			continue
		}
		intersection := 0
		for w := range queryWords {
			if _, ok := cachedWords[w]; ok {
				intersection++
			}
		}
		union := len(queryWords) + len(cachedWords) - intersection
		if union == 0 {
			continue
		}
		score := float64(intersection) / float64(union)
		if score > bestScore {
			bestScore = score
			best = entry
		}
	}
	if best == nil {
		return nil
	}
	return best.result
}

// InitSession creates an empty session record, replacing any expired one.
func (s *Store) InitSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = &sessionRecord{createdAt: s.now(), values: make(map[string]any)}
}

// UpdateSessionContext merges free-form key/value data into the session's
// short-term memory.
func (s *Store) UpdateSessionContext(sessionID string, values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sessions[sessionID]
	if !ok || s.expired(record) {
		record = &sessionRecord{createdAt: s.now(), values: make(map[string]any)}
		s.sessions[sessionID] = record
	}
	for k, v := range values {
		record.values[k] = v
	}
}

// GetSessionContext returns a copy of the session's key/value memory.
func (s *Store) GetSessionContext(sessionID string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sessions[sessionID]
	if !ok || s.expired(record) {
		return map[string]any{}
	}
	out := make(map[string]any, len(record.values))
	for k, v := range record.values {
		out[k] = v
	}
	return out
}

// PreferredCategories returns the session's top categories by frequency.
func (s *Store) PreferredCategories(sessionID string, topN int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return topByCount(s.categoryPrefs[sessionID], topN)
}

// PreferredCities returns the session's top cities by frequency.
func (s *Store) PreferredCities(sessionID string, topN int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return topByCount(s.cityPrefs[sessionID], topN)
}

// AddConversationTurn appends a user/system exchange, extracts topics,
// computes sentiment when not supplied, and records the topic transitions
// between this turn and the one before it. Turns are append-only.
func (s *Store) AddConversationTurn(sessionID, userMessage, systemResponse string, sentiment *float64) {
	if sessionID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	topics := ExtractTopics(userMessage)
	score := 0.0
	if sentiment != nil {
		score = *sentiment
	} else {
		score = AnalyzeSentiment(userMessage)
	}

	turns := s.conversations[sessionID]
	if len(turns) > 0 {
		prev := turns[len(turns)-1]
		for _, from := range prev.Topics {
			for _, to := range topics {
				if from != to {
					s.topicTransitions[sessionID] = append(s.topicTransitions[sessionID], types.TopicTransition{
						From:      from,
						To:        to,
						Timestamp: now,
					})
				}
			}
		}
	}

	s.conversations[sessionID] = append(turns, types.ConversationTurn{
		Timestamp:      now,
		UserMessage:    userMessage,
		SystemResponse: systemResponse,
		Topics:         topics,
		Sentiment:      score,
	})
	s.sentimentTrail[sessionID] = append(s.sentimentTrail[sessionID], score)
}

// FrequentTopics returns the most discussed topics across the session.
func (s *Store) FrequentTopics(sessionID string, topN int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frequentTopicsLocked(sessionID, topN)
}

func (s *Store) frequentTopicsLocked(sessionID string, topN int) []string {
	counts := make(map[string]int)
	for _, turn := range s.conversations[sessionID] {
		for _, topic := range turn.Topics {
			counts[topic]++
		}
	}
	return topByCount(counts, topN)
}

// GetConversationContext assembles the short-term memory handed to the
// response assembler: top preferences, recent topics, rolling sentiment of
// the last turns, and (if a query is given) whether its topics continue the
// recent conversation.
func (s *Store) GetConversationContext(sessionID, query string) types.ConversationContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := types.ConversationContext{SessionID: sessionID}
	if sessionID == "" {
		return ctx
	}

	if record, ok := s.sessions[sessionID]; ok && !s.expired(record) {
		values := make(map[string]any, len(record.values))
		for k, v := range record.values {
			values[k] = v
		}
		ctx.Values = values
	}

	ctx.Preferences.Categories = topByCount(s.categoryPrefs[sessionID], preferenceTopN)
	ctx.Preferences.Cities = topByCount(s.cityPrefs[sessionID], preferenceTopN)

	if turns := s.conversations[sessionID]; len(turns) > 0 {
		summary := &types.ConversationSummary{
			Exchanges:    len(turns),
			RecentTopics: s.frequentTopicsLocked(sessionID, preferenceTopN),
		}
		trail := s.sentimentTrail[sessionID]
		if len(trail) > 0 {
			start := len(trail) - sentimentTrendTurns
			if start < 0 {
				start = 0
			}
			sum := 0.0
			for _, v := range trail[start:] {
				sum += v
			}
			summary.SentimentTrend = sum / float64(len(trail[start:]))
		}
		ctx.Conversation = summary
	}

	if query != "" {
		current := &types.QueryTopics{
			Topics:    ExtractTopics(query),
			Sentiment: AnalyzeSentiment(query),
		}
		if ctx.Conversation != nil {
			for _, topic := range current.Topics {
				for _, recent := range ctx.Conversation.RecentTopics {
					if topic == recent {
						current.TopicContinuity = true
					}
				}
			}
		}
		ctx.CurrentQuery = current
	}

	return ctx
}

func (s *Store) expired(record *sessionRecord) bool {
	return s.now().Sub(record.createdAt) > s.sessionTTL
}

// topByCount orders keys by descending count, then lexicographically so
// equal counts resolve deterministically.
func topByCount(counts map[string]int, topN int) []string {
	if len(counts) == 0 {
		return nil
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > topN {
		keys = keys[:topN]
	}
	return keys
}

// fillerWords are stripped from queries before cache keying.
var fillerWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "is": {}, "are": {}, "was": {}, "were": {},
}

// NormalizeQuery lowercases, collapses whitespace, and strips filler words
// so near-identical queries share a cache key.
func NormalizeQuery(query string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := fillerWords[w]; !ok {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func toWordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}
