package app

import (
	"math/rand"

	"oddoneout/internal/domain"
)

// builtinPairs is the shipped question catalog. Crew members all answer
// the prompt; impostors answer the impostor prompt, which is close
// enough that their answer does not give them away immediately.
var builtinPairs = []domain.QuestionPair{
	{ID: "q001", Prompt: "What is your go-to comfort food?", ImpostorPrompt: "What food could you eat every single day?"},
	{ID: "q002", Prompt: "What is the best movie you saw last year?", ImpostorPrompt: "What movie do you recommend to everyone?"},
	{ID: "q003", Prompt: "What superpower would you pick?", ImpostorPrompt: "What superpower would be the most fun at parties?"},
	{ID: "q004", Prompt: "What is the first thing you do in the morning?", ImpostorPrompt: "What is the last thing you do before bed?"},
	{ID: "q005", Prompt: "What country would you most like to visit?", ImpostorPrompt: "What country has the best food?"},
	{ID: "q006", Prompt: "What was your favorite subject in school?", ImpostorPrompt: "What subject were you best at in school?"},
	{ID: "q007", Prompt: "What animal would you be for a day?", ImpostorPrompt: "What animal do people say you resemble?"},
	{ID: "q008", Prompt: "What song do you know all the words to?", ImpostorPrompt: "What song always gets stuck in your head?"},
	{ID: "q009", Prompt: "What is the most useless thing you own?", ImpostorPrompt: "What is the strangest thing you own?"},
	{ID: "q010", Prompt: "What job would you be terrible at?", ImpostorPrompt: "What job would you never apply for?"},
	{ID: "q011", Prompt: "What is your favorite season?", ImpostorPrompt: "What season has the best holidays?"},
	{ID: "q012", Prompt: "What fictional place would you move to?", ImpostorPrompt: "What fictional character would you want as a neighbor, where do they live?"},
	{ID: "q013", Prompt: "What is the best age to be?", ImpostorPrompt: "What age were you the happiest?"},
	{ID: "q014", Prompt: "What smell instantly makes you nostalgic?", ImpostorPrompt: "What smell do you love that others find odd?"},
	{ID: "q015", Prompt: "What would you do with an extra hour every day?", ImpostorPrompt: "What do you wish you had more time for?"},
	{ID: "q016", Prompt: "What is your most controversial food opinion?", ImpostorPrompt: "What popular food do you secretly dislike?"},
	{ID: "q017", Prompt: "What board game are you unbeatable at?", ImpostorPrompt: "What game always ends in arguments?"},
	{ID: "q018", Prompt: "What is the best gift you ever received?", ImpostorPrompt: "What is the best gift you ever gave?"},
	{ID: "q019", Prompt: "What chore do you actually enjoy?", ImpostorPrompt: "What chore do you put off the longest?"},
	{ID: "q020", Prompt: "What would your autobiography be called?", ImpostorPrompt: "What would the movie of your life be called?"},
	{ID: "q021", Prompt: "What is the most overrated tourist attraction?", ImpostorPrompt: "What famous place disappointed you?"},
	{ID: "q022", Prompt: "What decade had the best music?", ImpostorPrompt: "What decade would you most like to live in?"},
	{ID: "q023", Prompt: "What is your hidden talent?", ImpostorPrompt: "What skill do people not expect you to have?"},
	{ID: "q024", Prompt: "What would you buy first after winning the lottery?", ImpostorPrompt: "What is the most expensive thing on your wishlist?"},
	{ID: "q025", Prompt: "What app do you waste the most time on?", ImpostorPrompt: "What app could you not live without?"},
	{ID: "q026", Prompt: "What is the worst fashion trend you followed?", ImpostorPrompt: "What did you wear way too often as a teenager?"},
	{ID: "q027", Prompt: "What food do you refuse to share?", ImpostorPrompt: "What snack disappears fastest in your house?"},
	{ID: "q028", Prompt: "What historical figure would you have dinner with?", ImpostorPrompt: "What historical event would you witness?"},
	{ID: "q029", Prompt: "What is your favorite way to procrastinate?", ImpostorPrompt: "What do you do when you should be working?"},
	{ID: "q030", Prompt: "What sport would you add to the Olympics?", ImpostorPrompt: "What everyday activity should be a competition?"},
}

// Catalog serves question pairs and every other random draw the rules
// engine refuses to make itself.
type Catalog struct {
	pairs []domain.QuestionPair
}

// NewCatalog returns a catalog backed by the built-in pairs.
func NewCatalog() *Catalog {
	return &Catalog{pairs: builtinPairs}
}

// Size returns the number of pairs in the catalog.
func (c *Catalog) Size() int {
	return len(c.pairs)
}

// PickPair draws a random pair not yet marked used. With reuse allowed
// it draws an unused pair when one remains and falls back to the whole
// catalog otherwise. Returns false when every pair is used and reuse is
// off.
func (c *Catalog) PickPair(used map[string]bool, allowReuse bool) (domain.QuestionPair, bool) {
	unused := make([]domain.QuestionPair, 0, len(c.pairs))
	for _, p := range c.pairs {
		if !used[p.ID] {
			unused = append(unused, p)
		}
	}
	if len(unused) > 0 {
		return unused[rand.Intn(len(unused))], true
	}
	if allowReuse && len(c.pairs) > 0 {
		return c.pairs[rand.Intn(len(c.pairs))], true
	}
	return domain.QuestionPair{}, false
}

// DrawImpostorCount samples 0, 1 or 2 from the configured weights.
func (c *Catalog) DrawImpostorCount(w domain.ImpostorWeights) int {
	total := w.Zero + w.One + w.Two
	if total <= 0 {
		return 1
	}
	roll := rand.Float64() * total
	switch {
	case roll < w.Zero:
		return 0
	case roll < w.Zero+w.One:
		return 1
	default:
		return 2
	}
}

// DrawRoles assigns exactly impostorCount impostors uniformly among the
// active players and crew roles to the rest.
func (c *Catalog) DrawRoles(active []string, impostorCount int) map[string]domain.Role {
	shuffled := append([]string(nil), active...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	roles := make(map[string]domain.Role, len(active))
	for i, id := range shuffled {
		if i < impostorCount {
			roles[id] = domain.RoleImpostor
		} else {
			roles[id] = domain.RoleCrew
		}
	}
	return roles
}

// DrawOne picks a uniform random element, used for vote and winner
// tie-breaks. Returns "" for an empty candidate set.
func (c *Catalog) DrawOne(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return candidates[rand.Intn(len(candidates))]
}
