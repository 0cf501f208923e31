package ai

// TagVocabulary maps tag categories to the caption keywords that imply them.
// It is used to synthesize tags from a caption when the vision model does
// not return an explicit tag list.
var TagVocabulary = map[string][]string{
	"people":       {"person", "people", "man", "woman", "child", "children", "boy", "girl", "family", "crowd"},
	"animals":      {"dog", "cat", "bird", "horse", "fish", "animal", "pet", "wildlife"},
	"nature":       {"tree", "forest", "mountain", "river", "lake", "ocean", "beach", "sky", "sunset", "flower", "garden"},
	"food":         {"food", "meal", "cake", "fruit", "dinner", "breakfast", "plate", "drink"},
	"architecture": {"building", "house", "church", "bridge", "tower", "city", "street"},
	"vehicles":     {"car", "truck", "bicycle", "motorcycle", "boat", "train", "airplane", "bus"},
	"events":       {"party", "wedding", "birthday", "concert", "celebration", "ceremony", "festival"},
	"sports":       {"ball", "game", "playing", "running", "swimming", "skiing", "football", "soccer"},
	"indoor":       {"room", "kitchen", "table", "chair", "bed", "sofa", "window", "door"},
	"water":        {"water", "sea", "pool", "wave", "rain", "snow"},
}
