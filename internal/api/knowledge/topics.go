package knowledge

import "strings"

// topicKeywords buckets conversation text into coarse travel topics.
var topicKeywords = map[string][]string{
	"food":       {"food", "restaurant", "eat", "dining", "cuisine", "cafe", "coffee", "meal", "hungry", "dessert"},
	"nature":     {"nature", "mountain", "waterfall", "hiking", "outdoor", "forest", "river", "scenery", "volcano"},
	"beach":      {"beach", "sea", "ocean", "coast", "shore", "island", "swimming", "seaside"},
	"history":    {"history", "historical", "heritage", "museum", "shrine", "monument", "ancient", "old"},
	"relaxation": {"relax", "spa", "massage", "peaceful", "quiet", "unwind", "calm", "retreat"},
	"adventure":  {"adventure", "extreme", "thrill", "exciting", "trek", "zipline", "climbing"},
	"shopping":   {"shopping", "mall", "market", "store", "souvenir", "retail"},
	"lodging":    {"hotel", "resort", "stay", "accommodation", "room", "lodge", "inn", "overnight"},
	"culture":    {"culture", "church", "religious", "festival", "tradition", "art", "local"},
	"budget":     {"budget", "cheap", "affordable", "expensive", "cost", "price", "pesos"},
	"family":     {"family", "kids", "children", "playground", "child"},
	"romance":    {"romantic", "couple", "honeymoon", "date", "anniversary"},
}

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "nice": {}, "love": {}, "amazing": {}, "awesome": {},
	"beautiful": {}, "best": {}, "wonderful": {}, "excellent": {}, "enjoy": {},
	"fun": {}, "perfect": {}, "fantastic": {}, "like": {}, "happy": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "awful": {}, "hate": {}, "worst": {}, "boring": {},
	"dirty": {}, "expensive": {}, "disappointing": {}, "poor": {}, "avoid": {},
	"crowded": {}, "sad": {}, "dislike": {},
}

// ExtractTopics returns the travel topics whose keywords appear in the
// text, in no guaranteed order beyond determinism for identical input.
func ExtractTopics(text string) []string {
	lower := strings.ToLower(text)
	var topics []string
	for _, topic := range topicOrder {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lower, kw) {
				topics = append(topics, topic)
				break
			}
		}
	}
	return topics
}

// topicOrder fixes the iteration order over topicKeywords.
var topicOrder = []string{
	"food", "nature", "beach", "history", "relaxation", "adventure",
	"shopping", "lodging", "culture", "budget", "family", "romance",
}

// AnalyzeSentiment scores text in [-1, 1] as the balance of positive and
// negative keywords over the number of sentiment keywords found. Text with
// no sentiment keywords scores zero.
func AnalyzeSentiment(text string) float64 {
	positive, negative := 0, 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:'\"")
		if _, ok := positiveWords[w]; ok {
			positive++
		}
		if _, ok := negativeWords[w]; ok {
			negative++
		}
	}
	total := positive + negative
	if total == 0 {
		return 0
	}
	return float64(positive-negative) / float64(total)
}
