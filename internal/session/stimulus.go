package session

import "cognify-data/internal/domain"

// RecallStimulus memoryVault 单次会话的三个刺激词与各自的预置提示
type RecallStimulus struct {
	Word        string `json:"word"`
	Audio       string `json:"audio"`
	Picture     string `json:"picture"`
	WordHint    string `json:"wordHint"`
	AudioHint   string `json:"audioHint"`
	PictureHint string `json:"pictureHint"`
}

// Presented 刺激词转回忆输入三元组（打分时的标准答案）
func (s RecallStimulus) Presented() domain.RecallInputs {
	return domain.RecallInputs{Word: s.Word, Audio: s.Audio, Picture: s.Picture}
}

// SpeechPrompt processQuest 口头描述任务提示词
type SpeechPrompt struct {
	Prompt string `json:"prompt"`
}

// Scene sceneDetective 场景：图片资源名 + 语义词库
type Scene struct {
	Picture  string   `json:"picture"`
	WordBank []string `json:"wordBank"`
}

// recallBank memoryVault 刺激库，按 playCount 取模循环
var recallBank = []RecallStimulus{
	{Word: "Spoon", Audio: "Rainbow", Picture: "Apple", WordHint: "Used to eat soup", AudioHint: "Colours in the sky", PictureHint: "A fruit"},
	{Word: "Bicycle", Audio: "Shark", Picture: "Pencil", WordHint: "Two-wheeled ride", AudioHint: "Ocean predator", PictureHint: "Used to write"},
	{Word: "Castle", Audio: "Notebook", Picture: "Volcano", WordHint: "Royal home", AudioHint: "Used for writing", PictureHint: "Erupts lava"},
	{Word: "Clock", Audio: "Globe", Picture: "Hammer", WordHint: "Tells time", AudioHint: "Earth model", PictureHint: "Drives nails"},
	{Word: "Crown", Audio: "Pinneaple", Picture: "Lamp", WordHint: "Worn by royalty", AudioHint: "Spiky fruit", PictureHint: "Light source"},
	{Word: "Flower", Audio: "Hammock", Picture: "Kite", WordHint: "It blooms", AudioHint: "Hanging bed", PictureHint: "Flies in the wind"},
	{Word: "Window", Audio: "Grass", Picture: "Moon", WordHint: "Glass opening", AudioHint: "Green ground", PictureHint: "Night light"},
	{Word: "Fire", Audio: "Leaf", Picture: "Key", WordHint: "Hot and bright", AudioHint: "Green plant part", PictureHint: "Used to unlock"},
	{Word: "Cookie", Audio: "Door", Picture: "Knife", WordHint: "Sweet treat", AudioHint: "Entrance", PictureHint: "Cutting tool"},
	{Word: "Rain", Audio: "Egg", Picture: "Star", WordHint: "Water from sky", AudioHint: "Oval protein source", PictureHint: "Shines at night"},
	{Word: "Locket", Audio: "Cloud", Picture: "ladder", WordHint: "Pendant with a photo", AudioHint: "Fluffy in the sky", PictureHint: "For climbing"},
	{Word: "Bottle", Audio: "Ruler", Picture: "Button", WordHint: "Holds liquid", AudioHint: "Measures length", PictureHint: "Fastens clothes"},
	{Word: "Toothbrush", Audio: "Kettle", Picture: "Candle", WordHint: "Cleans teeth", AudioHint: "Boils water", PictureHint: "Wax light"},
	{Word: "Drum", Audio: "Brush", Picture: "Carrot", WordHint: "Beaten instrument", AudioHint: "Cleans or paints", PictureHint: "Orange veggie"},
	{Word: "Rope", Audio: "Lemon", Picture: "Bell", WordHint: "Strong cord", AudioHint: "Sour fruit", PictureHint: "It rings"},
	{Word: "Belt", Audio: "Alarm", Picture: "Chair", WordHint: "Waistwear", AudioHint: "Wakes you up", PictureHint: "Used to sit on"},
	{Word: "Wheel", Audio: "Block", Picture: "Vase", WordHint: "It rolls", AudioHint: "Solid piece", PictureHint: "Footwear"},
	{Word: "Bridge", Audio: "Mouse", Picture: "Sock", WordHint: "Spans gaps", AudioHint: "Small rodent", PictureHint: "Used to drink"},
	{Word: "Honey", Audio: "Frame", Picture: "Fan", WordHint: "Sweet from bees", AudioHint: "Holds pictures", PictureHint: "Blows air"},
	{Word: "Glass", Audio: "Boat", Picture: "Bowl", WordHint: "Clear material", AudioHint: "Water transport", PictureHint: "Holds food"},
	{Word: "Basket", Audio: "Salt", Picture: "Map", WordHint: "Holds items", AudioHint: "Adds flavour", PictureHint: "Shows places"},
}

// promptBank processQuest 提示库
var promptBank = []SpeechPrompt{
	{Prompt: "Explain how to make a simple sandwich for lunch. Include your choice of bread, spreads, fillings, and how to assemble it neatly."},
	{Prompt: "Describe how to pack a carry-on bag efficiently for a weekend trip. Explain choosing clothes, rolling or folding techniques, organizing toiletries, and including essential documents and electronics."},
	{Prompt: "Walk through the process of starting a small vegetable garden in your backyard. Include planning the garden, preparing the soil, choosing vegetables, planting, watering, and maintaining the garden."},
	{Prompt: "Walk through the process of organizing a small event, like a birthday party. Cover selecting a venue, sending invitations, planning food and activities, setting up, and managing the event on the day."},
	{Prompt: "Describe how to clean and organize a messy desk. Include what to throw out, what to keep, and how to set things up to stay neat."},
	{Prompt: "Explain how to wrap a present neatly. Walk through measuring the paper, folding the edges, taping securely, and adding a ribbon or bow."},
	{Prompt: "Provide step-by-step instructions for how to hand wash a piece of clothing. Cover filling a basin, adding detergent, gentle washing, rinsing, and drying."},
}

// sceneBank sceneDetective 场景库
var sceneBank = []Scene{
	{
		Picture: "scenario1",
		WordBank: []string{
			"soccer", "hat", "children", "playing", "picnic", "dog", "dad",
			"wind", "fruit", "sandwich", "basket", "trees", "grass", "family",
			"mom", "sun", "blowing", "bench", "ball", "park",
		},
	},
	{
		Picture: "scenario2",
		WordBank: []string{
			"cafe", "drinking", "barista", "child", "dog", "father", "coffee",
			"croissant", "flowers", "eating", "sitting", "serving", "woman",
			"mug", "window", "street", "bar", "table", "stool", "chair",
		},
	},
	{
		Picture: "scenario3",
		WordBank: []string{
			"groceries", "girl", "cashier", "parent", "apple", "cart",
			"shopping", "dropped", "paying", "browsing", "floor", "shelf",
			"cans", "customer", "counter", "bag", "box", "vegetable",
			"register", "store",
		},
	},
}

// bankIndex 刺激选取：显式 sessionIndex 优先，否则 playCount 取模。
// 同一下标永远得到同一套刺激。
func bankIndex(patient *domain.Patient, bankSize int) int {
	if patient.SessionIndex > 0 {
		return (patient.SessionIndex - 1) % bankSize
	}
	return patient.PlayCount % bankSize
}

// RecallStimulusFor 选取病人当前的 memoryVault 刺激
func RecallStimulusFor(patient *domain.Patient) RecallStimulus {
	return recallBank[bankIndex(patient, len(recallBank))]
}

// PromptFor 选取病人当前的 processQuest 提示词
func PromptFor(patient *domain.Patient) SpeechPrompt {
	return promptBank[bankIndex(patient, len(promptBank))]
}

// SceneFor 选取病人当前的 sceneDetective 场景
func SceneFor(patient *domain.Patient) Scene {
	return sceneBank[bankIndex(patient, len(sceneBank))]
}
