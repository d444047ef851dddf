// Package catalog holds the static tile content: core tiles, per-context
// phrase sets, and the entity boost table. Pure data, no logic beyond lookups.
package catalog

import (
	"strings"

	"github.com/sayboard/sayboard/internal/model"
)

// CoreTiles are always present in every grid regardless of context.
var CoreTiles = []model.TileDefinition{
	{ID: "core_yes", Label: "Yes", Speak: "Yes", Emoji: "✅", Priority: 100, AlwaysShow: true},
	{ID: "core_no", Label: "No", Speak: "No", Emoji: "❌", Priority: 100, AlwaysShow: true},
	{ID: "core_help", Label: "Help", Speak: "I need help", Emoji: "🙋", Priority: 100, AlwaysShow: true},
	{ID: "core_more", Label: "More", Emoji: "➕", Priority: 100, AlwaysShow: true, Action: model.ActionExpandGrid},
}

// tileSets maps each context to its curated phrase set. Contexts without
// authored content are absent; SetFor falls back to the feelings set so the
// user always has something meaningful to say.
var tileSets = map[model.ContextType][]model.TileDefinition{
	model.ContextRestaurantCounter: {
		{ID: "rc_1", Label: "I want to order", Speak: "I would like to order please", Emoji: "🍔", Priority: 10},
		{ID: "rc_2", Label: "Menu please", Speak: "Can I see the menu please?", Emoji: "📜", Priority: 9},
		{ID: "rc_3", Label: "How much?", Speak: "How much does that cost?", Emoji: "💰", Priority: 8},
		{ID: "rc_4", Label: "Water please", Speak: "Can I have some water please?", Emoji: "💧", Priority: 7},
		{ID: "rc_5", Label: "That one", Speak: "I would like that one please", Emoji: "👉", Priority: 8},
		{ID: "rc_6", Label: "No thank you", Speak: "No thank you", Emoji: "🚫", Priority: 6},
		{ID: "rc_7", Label: "Pay now", Speak: "I would like to pay please", Emoji: "💳", Priority: 7},
		{ID: "rc_8", Label: "Bathroom?", Speak: "Where is the bathroom?", Emoji: "🚻", Priority: 5},
	},
	model.ContextPlayground: {
		{ID: "pg_1", Label: "Can I play?", Speak: "Can I play with you?", Emoji: "🤝", Priority: 10},
		{ID: "pg_2", Label: "My turn", Speak: "It is my turn now", Emoji: "🏃", Priority: 9},
		{ID: "pg_3", Label: "Push me", Speak: "Can you push me please?", Emoji: "🫷", Priority: 8},
		{ID: "pg_4", Label: "Higher!", Speak: "Higher please!", Emoji: "⬆️", Priority: 7},
		{ID: "pg_5", Label: "I need help", Speak: "I need help please", Emoji: "🙋", Priority: 10},
		{ID: "pg_6", Label: "Stop", Speak: "Stop please", Emoji: "✋", Priority: 9},
		{ID: "pg_7", Label: "Again!", Speak: "Again! Let us do it again!", Emoji: "🔄", Priority: 7},
		{ID: "pg_8", Label: "I am tired", Speak: "I am tired", Emoji: "😴", Priority: 6},
	},
	model.ContextHomeKitchen: {
		{ID: "hk_1", Label: "Hungry", Speak: "I am hungry, can I have a snack?", Emoji: "🥨", Priority: 10},
		{ID: "hk_2", Label: "Thirsty", Speak: "I am thirsty, can I have a drink?", Emoji: "🥤", Priority: 10},
		{ID: "hk_3", Label: "Juice", Speak: "Can I have some juice please?", Emoji: "🧃", Priority: 9},
		{ID: "hk_4", Label: "Milk", Speak: "Can I have some milk please?", Emoji: "🥛", Priority: 9},
		{ID: "hk_5", Label: "Cookie", Speak: "Can I have a cookie please?", Emoji: "🍪", Priority: 8},
		{ID: "hk_6", Label: "Fruit", Speak: "Can I have some fruit please?", Emoji: "🍎", Priority: 8},
		{ID: "hk_7", Label: "Open this", Speak: "Can you help me open this please?", Emoji: "👐", Priority: 9},
		{ID: "hk_8", Label: "All done", Speak: "I am all done now", Emoji: "✅", Priority: 7},
	},
	// Feelings mode: shown for unknown context or a selfie/face-forward frame.
	model.ContextUnknown: {
		{ID: "feel_1", Label: "Happy", Speak: "I am feeling happy", Emoji: "😊", Priority: 10},
		{ID: "feel_2", Label: "Sad", Speak: "I am feeling sad", Emoji: "😢", Priority: 10},
		{ID: "feel_3", Label: "Tired", Speak: "I am feeling tired", Emoji: "😴", Priority: 9},
		{ID: "feel_4", Label: "Hungry", Speak: "I am hungry", Emoji: "🍽️", Priority: 9},
		{ID: "feel_5", Label: "Hurt", Speak: "Something hurts", Emoji: "🤕", Priority: 10},
	},
}

// entityTileMap maps normalized entity names to tile ids whose relevance is
// boosted when that entity is in view.
var entityTileMap = map[string][]string{
	// Playground
	"swing":          {"pg_3", "pg_4", "pg_2"},
	"swings":         {"pg_3", "pg_4", "pg_2"},
	"slide":          {"pg_2", "pg_7"},
	"other_children": {"pg_1", "pg_2"},
	"children":       {"pg_1", "pg_2"},
	"kid":            {"pg_1", "pg_2"},
	"kids":           {"pg_1", "pg_2"},
	"sandbox":        {"pg_1", "pg_2"},
	"climbing_frame": {"pg_5", "pg_6"},

	// Restaurant
	"cashier":    {"rc_3", "rc_7"},
	"counter":    {"rc_1", "rc_2"},
	"menu_board": {"rc_1", "rc_2"},
	"menu":       {"rc_2"},
	"food":       {"rc_5", "rc_1"},
	"drink":      {"rc_4", "rc_5"},
	"ice_cream":  {"rc_5", "rc_3"},

	// Cross-context
	"water_fountain": {"rc_4"},
	"bathroom_sign":  {"rc_8"},
	"toilet":         {"rc_8"},
	"restroom":       {"rc_8"},
	"adult":          {"core_help", "pg_5"},
	"parent":         {"core_help"},
	"teacher":        {"core_help"},

	// Kitchen and pantry
	"refrigerator": {"hk_2", "hk_3", "hk_4"},
	"fridge":       {"hk_2", "hk_3", "hk_4"},
	"pantry":       {"hk_1", "hk_5", "hk_6"},
	"cabinet":      {"hk_1", "hk_5", "hk_7"},
	"shelf":        {"hk_1", "hk_5"},
	"bottle":       {"hk_2", "hk_3", "hk_7"},
	"cup":          {"hk_2", "hk_4"},
	"glass":        {"hk_2", "hk_4"},
	"juice_box":    {"hk_3", "hk_7"},
	"snack_bag":    {"hk_1", "hk_5", "hk_7"},
}

// NormalizeEntity canonicalizes a detected entity name for lookups:
// lowercased, internal whitespace collapsed to underscores.
func NormalizeEntity(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "_")
}

// SetFor returns the curated tile set for a context. Contexts with no
// authored content fall back to the feelings set rather than leaving the
// user with core tiles only.
func SetFor(ctx model.ContextType) []model.TileDefinition {
	if set, ok := tileSets[ctx]; ok && len(set) > 0 {
		return set
	}
	return tileSets[model.ContextUnknown]
}

// HasAuthoredSet reports whether the context has its own curated tile set.
func HasAuthoredSet(ctx model.ContextType) bool {
	set, ok := tileSets[ctx]
	return ok && len(set) > 0
}

// BoostedTiles returns the tile ids boosted by a normalized entity, or nil if
// the entity has no mapping.
func BoostedTiles(entity string) []string {
	return entityTileMap[entity]
}
