package recommendation

// Curated vocabulary used by the extractor and the matcher. These tables are
// fixed lists maintained by hand, not inferred from the dataset.

// categorySynonyms maps a canonical dataset category to the keywords and
// variations that should resolve to it.
var categorySynonyms = map[string][]string{
	"Restaurant":          {"restaurant", "dining", "eatery", "food", "cuisine", "meal", "bistro", "diner", "eating place", "eat", "hungry"},
	"Resort":              {"resort", "vacation spot", "getaway", "retreat"},
	"Landmark":            {"landmark", "attraction", "monument", "famous place", "tourist spot"},
	"Shopping/Restaurant": {"shopping", "mall", "shop", "store", "boutique", "retail", "shopping center", "plaza"},
	"Spa/Restaurant":      {"spa", "massage", "wellness", "relaxation", "treatment"},
	"Zoo":                 {"zoo", "animal", "wildlife", "safari", "animals"},
	"Farm/Restaurant":     {"farm to table"},
	"Food Shop":           {"food shop", "bakery", "pastry", "dessert", "sweets", "delicatessen", "specialty food"},
	"Beach Resort":        {"beach resort", "seaside resort", "coastal resort", "beachfront"},
	"Beach":               {"beach", "shore", "coast", "seaside", "sand", "bay"},
	"Natural Attraction":  {"natural attraction", "nature", "scenery", "landscape", "waterfall", "falls", "cave", "rock formation", "outdoors", "volcano", "river", "hiking", "trek", "forest"},
	"Religious Site":      {"religious site", "church", "temple", "mosque", "shrine", "cathedral", "chapel", "monastery"},
	"Sports Facility":     {"sports", "athletics", "stadium", "arena", "court", "field", "gym", "fitness"},
	"Golf Course":         {"golf", "golf course", "country club"},
	"Park":                {"park", "square", "gardens", "playground", "recreation area"},
	"Mountain":            {"mountain", "hill", "peak", "summit", "highlands", "cliff", "ridge"},
	"Hotel":               {"hotel", "inn", "lodge", "motel", "place to stay", "hostel", "guesthouse", "room"},
	"Museum":              {"museum", "gallery", "exhibit", "collection", "artifacts", "heritage center"},
	"Garden":              {"garden", "botanical", "flowers", "plants", "greenhouse"},
	"Accommodation":       {"accommodation", "lodging", "stay", "boarding", "bed and breakfast"},
	"Historical Site":     {"historical site", "historical", "historic", "history", "heritage", "ancient", "ruins", "archaeology", "old", "traditional"},
	"Hotel & Resort":      {"hotel and resort", "hotel & resort", "resort hotel", "luxury resort"},
	"Leisure":             {"leisure", "entertainment", "recreation", "fun", "pastime", "amusement", "rides", "thrill"},
	"Café/Restaurant":     {"café/restaurant", "cafe restaurant", "tea house", "patisserie"},
	"Farm":                {"farm", "ranch", "plantation", "orchard", "agricultural", "dairy"},
	"Cafe":                {"cafe", "café", "coffee shop", "coffee house", "coffee", "espresso", "cafeteria"},
}

// categoryGroups expands a detected category into semantically related
// categories searched together during fallback retrieval. The first entry
// is always the primary category.
var categoryGroups = map[string][]string{
	"Cafe":                {"Cafe", "Café/Restaurant", "Restaurant"},
	"Restaurant":          {"Restaurant", "Café/Restaurant", "Food Shop"},
	"Café/Restaurant":     {"Café/Restaurant", "Cafe", "Restaurant"},
	"Hotel":               {"Hotel", "Hotel & Resort", "Accommodation"},
	"Resort":              {"Resort", "Hotel & Resort", "Beach Resort"},
	"Beach Resort":        {"Beach Resort", "Resort", "Hotel & Resort"},
	"Beach":               {"Beach", "Beach Resort", "Natural Attraction"},
	"Historical Site":     {"Historical Site", "Landmark", "Museum"},
	"Natural Attraction":  {"Natural Attraction", "Park", "Mountain", "Beach"},
	"Shopping/Restaurant": {"Shopping/Restaurant", "Restaurant", "Leisure"},
}

// cityGazetteer maps lowercase city spellings to their canonical form.
// All entries belong to Cavite province; the gazetteer drives same-region
// boosts during ranking.
var cityGazetteer = map[string]string{
	"kawit":          "Kawit",
	"tagaytay":       "Tagaytay",
	"amadeo":         "Amadeo",
	"indang":         "Indang",
	"ternate":        "Ternate",
	"maragondon":     "Maragondon",
	"mendez":         "Mendez",
	"alfonso":        "Alfonso",
	"silang":         "Silang",
	"imus":           "Imus",
	"bailen":         "Bailen",
	"laurel":         "Laurel",
	"dasmarinas":     "Dasmarinas",
	"bacoor":         "Bacoor",
	"trece martires": "Trece Martires",
	"tanza":          "Tanza",
	"naic":           "Naic",
	"rosario":        "Rosario",
	"general trias":  "General Trias",
	"cavite city":    "Cavite City",
}

const gazetteerProvince = "cavite"

// intentPhrases maps a travel intent to the phrases that indicate it.
var intentPhrases = map[string][]string{
	"find_destination": {
		"show me", "recommend", "suggest", "find", "looking for", "want to visit",
		"places to visit", "want to see", "where can i find", "where is", "where are",
		"best place for", "top places in", "popular spots in", "coffee places",
		"cafe spots", "cafes in", "coffee shops",
	},
	"explore_activity": {
		"activities", "things to do", "what can i do", "what to do", "what are the best",
		"where can i", "how to experience", "best way to", "top activities in",
		"best coffee in", "where to drink coffee", "cafe hopping",
	},
	"plan_trip": {
		"plan", "itinerary", "schedule", "trip to", "travel to", "want to go",
		"how to plan", "create itinerary", "make schedule", "organize trip",
	},
	"get_info": {
		"tell me about", "information about", "what is", "details about", "facts about",
		"describe", "explain", "more about", "background of",
	},
	"compare_destinations": {
		"compare", "difference between", "which is better", "versus", "vs",
		"should i visit", "better option between",
	},
}

// budgetTierKeywords maps a categorical budget tier to its indicator words.
var budgetTierKeywords = map[string][]string{
	"low": {
		"cheap", "budget", "affordable", "inexpensive", "low cost", "economical",
		"budget-friendly", "cost-effective", "pocket-friendly", "thrifty",
	},
	"medium": {
		"moderate", "reasonable", "mid-range", "standard", "average",
		"balanced", "modest", "fair price", "middle range",
	},
	"high": {
		"luxury", "expensive", "high-end", "premium", "exclusive",
		"upscale", "deluxe", "first-class", "top-tier",
	},
}

// tripTypeKeywords maps a trip type to its indicator words.
var tripTypeKeywords = map[string][]string{
	"adventure":  {"adventure", "hiking", "trekking", "outdoor", "extreme", "thrilling", "exciting", "challenging", "exploration"},
	"relaxation": {"relax", "peaceful", "quiet", "calm", "unwind", "spa", "retreat", "tranquil", "serene", "leisure", "restful"},
	"cultural":   {"culture", "history", "historical", "museum", "tradition", "heritage", "artistic", "architectural", "religious", "spiritual"},
	"family":     {"family", "kids", "children", "family-friendly", "child-friendly", "suitable for children", "family activities", "family vacation"},
	"romantic":   {"romantic", "couple", "honeymoon", "anniversary", "date", "romantic getaway", "couple activities", "romantic spots"},
	"food":       {"food", "restaurant", "cuisine", "dining", "eat", "local food", "traditional dishes", "culinary"},
	"shopping":   {"shopping", "market", "mall", "store", "retail", "souvenirs", "local products", "shopping district"},
}
