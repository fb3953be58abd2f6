package scoring

// Curated familiarity sets. These are compiled in on purpose: the cultural
// scorer must answer without external lookups, and the sets change rarely
// enough that a release carries them.

var categoryMembers = map[string]map[string]struct{}{
	"food": setOf(
		"pizza", "sushi", "tacos", "ice cream", "hot dog", "fried chicken",
		"french fries", "pad thai", "ramen", "burrito", "pancakes", "apple pie",
		"cheese cake", "spring rolls", "fish and chips", "peanut butter",
	),
	"sports": setOf(
		"soccer", "basketball", "tennis", "baseball", "golf", "boxing",
		"table tennis", "ice hockey", "figure skating", "rock climbing",
		"horse racing", "martial arts",
	),
	"celebrities": setOf(
		"taylor swift", "michael jackson", "elvis presley", "beyonce",
		"david beckham", "oprah winfrey", "charlie chaplin", "bruce lee",
		"muhammad ali", "marilyn monroe",
	),
	"screen": setOf(
		"star wars", "harry potter", "james bond", "mickey mouse",
		"spider man", "the simpsons", "jurassic park", "toy story",
	),
	"music": setOf(
		"rock and roll", "hip hop", "air guitar", "karaoke night",
		"marching band", "grand piano",
	),
	"animals": setOf(
		"polar bear", "golden retriever", "great white shark", "bald eagle",
		"guinea pig", "giant panda",
	),
	"places": setOf(
		"eiffel tower", "times square", "grand canyon", "great wall",
		"statue of liberty", "mount everest",
	),
	"games": setOf(
		"hide and seek", "musical chairs", "rock paper scissors",
		"truth or dare", "video games",
	),
}

// highPopularityWords are words or staples essentially everyone recognizes.
var highPopularityWords = setOf(
	"pizza", "dog", "cat", "car", "phone", "money", "coffee", "beach",
	"dance", "music", "movie", "soccer", "football", "birthday", "wedding",
	"christmas", "beer", "chocolate", "sun", "rain", "baby", "king", "queen",
	"police", "doctor", "school", "love", "fire", "water",
)

// mediumPopularityWords are broadly known but less universal.
var mediumPopularityWords = setOf(
	"sushi", "karaoke", "yoga", "selfie", "podcast", "tattoo", "skateboard",
	"barbecue", "camping", "circus", "magician", "vampire", "zombie",
	"pirate", "ninja", "robot", "astronaut", "dinosaur", "unicorn", "karate",
)

// lowPopularityWords are niche but still plausibly known.
var lowPopularityWords = setOf(
	"origami", "parkour", "fondue", "curling", "falconry", "banjo",
	"kazoo", "mime", "haiku", "bonsai", "gondola", "sombrero",
)

// globalReachWords travel across most languages nearly unchanged.
var globalReachWords = setOf(
	"pizza", "taxi", "hotel", "chocolate", "coffee", "tennis", "radio",
	"internet", "karaoke", "sushi", "yoga", "opera",
)

// wideReachWords are understood across many, not all, language groups.
var wideReachWords = setOf(
	"football", "piano", "robot", "safari", "ballet", "metro", "tango",
	"circus", "kiosk", "sauna",
)

// regionalReachWords carry limited cross-language recognition.
var regionalReachWords = setOf(
	"barbecue", "pretzel", "bagel", "kayak", "igloo", "poncho",
)

func setOf(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
