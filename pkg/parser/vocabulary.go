package parser

// excludedWords are upper-case tokens the extraction patterns pick up that are
// almost never tickers: common English words plus false positives seen in
// real feeds. Some real symbols (BTC, ETH, LINK, DOT, BNB) are listed on
// purpose because they collide with everyday words or flood crypto threads.
var excludedWords = toSet(
	"ABOVE", "ACT", "ADD", "AFTER", "AGAIN", "AGO", "AHEAD", "AIR", "ALL",
	"ALSO", "ALWAYS", "AN", "AND", "ANIMAL", "ANSWER", "ANY", "ARE",
	"ARM", "AS", "ASK", "AT", "BACK", "BAD", "BASE", "BEACH", "BEEN",
	"BEFORE", "BEGAN", "BEGINNING", "BEING", "BETWEEN", "BIG", "BIRD",
	"BNB", "BODY", "BOOK", "BOTH", "BOY", "BTC", "BUILD", "BUT", "BUY",
	"BY", "CALLED", "CALLS", "CAME", "CAN", "CAR", "CARE", "CARRY",
	"CAUSE", "CHANGE", "CHEAP", "CHILDREN", "CITY", "COLOR", "COME",
	"COUNTRY", "COVER", "COVID", "CROSS", "CUT", "DAY", "DD", "DID",
	"DIFFER", "DOES", "DOG", "DOT", "DRAW", "DURING", "DYING", "EARTH",
	"EASE", "EAT", "END", "ENOUGH", "ETH", "EVEN", "EVER", "EVERY",
	"EXAMPLE", "EYE", "FACE", "FAMILY", "FAR", "FARM", "FATHER", "FEEL",
	"FEET", "FEW", "FIELD", "FIND", "FISH", "FOLLOW", "FOOD", "FOR",
	"FORM", "FOUND", "FOUR", "FRIEND", "FROM", "FUN", "GET", "GIRL",
	"GIVE", "GOD", "GOOD", "GOT", "GREAT", "GROUP", "GROW", "HAD", "HAND",
	"HARD", "HAUL", "HAVE", "HEAD", "HEAR", "HELP", "HER", "HERE", "HIGH",
	"HIM", "HOME", "HORSE", "HOUSE", "HOW", "IDEA", "ILL", "IN", "INTO",
	"ITS", "JUST", "KEEP", "KIND", "KNOW", "LAND", "LARGE", "LAST",
	"LATE", "LEARN", "LEAVE", "LEFT", "LESS", "LET", "LETTER", "LIFE",
	"LIGHT", "LIKE", "LINE", "LINK", "LIST", "LITTLE", "LIVE", "LONG",
	"LOOK", "LOW", "LYC", "MADE", "MAIN", "MAKE", "MAN", "MANY", "MARK",
	"MAY", "ME", "MEAN", "MEN", "MIGHT", "MILE", "MOONS", "MORE",
	"MOTHER", "MOUNTAIN", "MOVE", "MUCH", "MUSIC", "MUST", "MY", "NAME",
	"NEAR", "NEED", "NEVER", "NEW", "NEXT", "NICE", "NORTH", "NOT",
	"NOTHING", "NOW", "OF", "OFF", "OFTEN", "OLD", "ONCE", "ONE", "ONLY",
	"OPEN", "OUR", "OVER", "OWN", "PAGE", "PAPER", "PART", "PER",
	"PICTURE", "PLACE", "PLAIN", "PLANT", "PLAY", "POINT", "POSSIBLE",
	"POST", "PUT", "RAIN", "RANGE", "RATES", "READ", "READY", "REAL",
	"REALLY", "RED", "RIGHT", "RIVER", "ROOM", "ROUND", "RTA", "RUN",
	"SAME", "SAW", "SAY", "SCHOOL", "SEA", "SECOND", "SEE", "SEEM",
	"SELF", "SENTENCE", "SET", "SEVERAL", "SHE", "SHOULD", "SHOW", "SIDE",
	"SIT", "SIX", "SMALL", "SOME", "SOON", "SPELL", "STAND", "START",
	"STARTED", "STATE", "STILL", "STOP", "STORY", "STUDY", "STUFF",
	"SUCH", "SUN", "SURE", "TAILS", "TAKE", "TALK", "TECH", "TELL",
	"TERM", "THAN", "THAT", "THE", "THEM", "THEY", "THINK", "THIS",
	"THOSE", "THOUGH", "THOUGHT", "THREE", "THROUGH", "TIME", "TO",
	"TOGETHER", "TOO", "TOOK", "TREE", "TRUMP", "TRY", "TURN", "UNDER",
	"UNTIL", "US", "USE", "USING", "USUAL", "VALID", "VERY", "VISAS",
	"WALK", "WANT", "WAS", "WATCH", "WAY", "WELL", "WENT", "WERE", "WHAT",
	"WHEN", "WHERE", "WHILE", "WHITE", "WHO", "WHY", "WILL", "WITH",
	"WOOD", "WORK", "WORLD", "WRITE", "YEAR", "YES", "YET", "YOU",
	"YOUNG", "YOUR",
)

// exchangeSuffixes are stripped from symbols such as SHOP.TO or VOD.L.
var exchangeSuffixes = []string{".TO", ".V", ".L", ".PA", ".DE", ".HK"}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
