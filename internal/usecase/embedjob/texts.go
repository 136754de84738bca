package embedjob

import (
	"fmt"
	"strings"

	"github.com/aryan083/pokedex/internal/domain"
)

// typeTraits maps each type to descriptive vocabulary woven into the
// description channel, so thematic queries land near entities of that type.
var typeTraits = map[string][]string{
	"fire":     {"flame", "burn", "heat", "hot", "blazing", "scorching"},
	"water":    {"aqua", "ocean", "sea", "marine", "splash", "wave", "fluid"},
	"electric": {"bolt", "lightning", "thunder", "shock", "spark", "zap", "voltage"},
	"grass":    {"leaf", "plant", "nature", "forest", "bloom", "green", "photosynthesis"},
	"ice":      {"frost", "freeze", "cold", "snow", "blizzard", "frozen", "arctic"},
	"ground":   {"earth", "soil", "dirt", "sand", "mud", "terrestrial", "seismic"},
	"flying":   {"wind", "air", "sky", "wing", "feather", "aerial", "soaring"},
	"psychic":  {"mind", "mental", "brain", "telekinesis", "telepathy", "psychokinesis"},
	"bug":      {"insect", "beetle", "spider", "ant", "swarm", "chitinous"},
	"rock":     {"stone", "mineral", "crystal", "gem", "boulder", "geological"},
	"ghost":    {"spirit", "phantom", "spook", "haunt", "ethereal", "spectral"},
	"dragon":   {"wyrm", "drake", "serpent", "legendary", "mythical", "ancient"},
	"dark":     {"shadow", "evil", "night", "sinister", "malevolent", "obscure"},
	"steel":    {"metal", "iron", "chrome", "metallic", "mechanical", "industrial"},
	"fairy":    {"magic", "mystical", "enchanted", "whimsical", "magical", "ethereal"},
	"poison":   {"toxic", "venom", "acid", "poisonous", "venomous", "noxious"},
	"fighting": {"martial", "combat", "warrior", "brawl", "battle", "physical"},
	"normal":   {"ordinary", "common", "regular", "standard", "typical", "basic"},
}

// BuildTexts renders the four channel texts for one entity.
func BuildTexts(p domain.Pokemon) map[domain.Channel]string {
	return map[domain.Channel]string{
		domain.ChannelName:        p.Name,
		domain.ChannelType:        fmt.Sprintf("%s type pokemon", strings.Join(p.Types, " ")),
		domain.ChannelDescription: describePokemon(p),
		domain.ChannelCombined:    combinedSentence(p),
	}
}

// describePokemon lists stat and type characteristics as loose vocabulary.
// The words mirror the terms the query parser recognizes, which is what
// makes description-channel hits line up with semantic intent.
func describePokemon(p domain.Pokemon) string {
	var traits []string

	if p.Speed > 100 {
		traits = append(traits, "fast", "quick", "speedy")
	}
	if p.HP+p.Defense > 160 {
		traits = append(traits, "tank", "bulky", "defensive")
	}
	if p.Attack > 100 && p.Defense < 70 {
		traits = append(traits, "glass cannon", "fragile", "offensive")
	}
	if p.Attack > 120 {
		traits = append(traits, "strong", "powerful", "mighty")
	}
	if p.HP > 100 {
		traits = append(traits, "tough", "resilient", "hardy")
	}
	if p.Defense > 100 {
		traits = append(traits, "defensive", "sturdy", "protective")
	}

	for _, t := range p.Types {
		traits = append(traits, typeTraits[strings.ToLower(t)]...)
	}

	for _, a := range p.Abilities {
		traits = append(traits, sanitizeAbility(a))
	}

	return strings.Join(traits, " ")
}

// combinedSentence renders one full sentence covering name, types, stats
// and abilities.
func combinedSentence(p domain.Pokemon) string {
	return fmt.Sprintf(
		"%s is a %s type pokemon from generation %d with %d HP, %d attack, %d defense, and %d speed. Abilities: %s.",
		p.Name, strings.Join(p.Types, " and "), p.Generation,
		p.HP, p.Attack, p.Defense, p.Speed,
		strings.Join(p.Abilities, ", "),
	)
}

func sanitizeAbility(a string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, strings.ToLower(a))
}
