package games

import "fmt"

// Game identifies which token vocabulary a training run uses.
// Exactly one table is active per run, fixed for its duration.
type Game int

const (
	Mario Game = iota
	Sonic
	SonicCommercial
	MarioKart
)

// ParseGame maps a game name to its identifier.
func ParseGame(s string) (Game, error) {
	switch s {
	case "mario":
		return Mario, nil
	case "sonic":
		return Sonic, nil
	case "sonic_commercial":
		return SonicCommercial, nil
	case "mariokart":
		return MarioKart, nil
	}
	return 0, fmt.Errorf("unknown game %q", s)
}

func (g Game) String() string {
	switch g {
	case Mario:
		return "mario"
	case Sonic:
		return "sonic"
	case SonicCommercial:
		return "sonic_commercial"
	case MarioKart:
		return "mariokart"
	}
	return fmt.Sprintf("Game(%d)", int(g))
}

// TokenGroup collapses related tokens into one semantic channel. The first
// token of a group is its representative when expanding back.
type TokenGroup struct {
	Name   string
	Tokens []string
}

var marioTokens = []string{
	"!", "#", "-", "1", "2", "?", "@", "C", "E", "K", "L", "Q", "S", "U", "X",
	"b", "g", "k", "o", "r", "t",
}

var marioTokenGroups = []TokenGroup{
	{Name: "sky", Tokens: []string{"-"}},
	{Name: "ground", Tokens: []string{"X", "#", "S"}},
	{Name: "special", Tokens: []string{"?", "@", "Q", "!", "1", "2", "C", "U", "L"}},
	{Name: "enemy", Tokens: []string{"E", "g", "k", "r", "b", "K"}},
	{Name: "pipe", Tokens: []string{"t"}},
	{Name: "coin", Tokens: []string{"o"}},
}

var sonicTokens = []string{".", "#", "/", "\\", "^", "E", "R", "S", "o"}

var sonicTokenGroups = []TokenGroup{
	{Name: "air", Tokens: []string{"."}},
	{Name: "solid", Tokens: []string{"#", "/", "\\", "^"}},
	{Name: "hazard", Tokens: []string{"E", "S"}},
	{Name: "item", Tokens: []string{"R", "o"}},
}

var sonicCommercialTokens = []string{".", "#", "/", "\\", "^", "B", "E", "M", "R", "S", "o"}

var sonicCommercialTokenGroups = []TokenGroup{
	{Name: "air", Tokens: []string{"."}},
	{Name: "solid", Tokens: []string{"#", "/", "\\", "^", "B"}},
	{Name: "hazard", Tokens: []string{"E", "S", "M"}},
	{Name: "item", Tokens: []string{"R", "o"}},
}

var mariokartTokens = []string{"R", "O", "W", "G", "D", "C", "<", ">"}

var mariokartTokenGroups = []TokenGroup{
	{Name: "road", Tokens: []string{"R", "<", ">"}},
	{Name: "offroad", Tokens: []string{"O", "G", "D"}},
	{Name: "wall", Tokens: []string{"W"}},
	{Name: "item", Tokens: []string{"C"}},
}

// Tokens returns the full token vocabulary of the game.
func (g Game) Tokens() []string {
	switch g {
	case Mario:
		return marioTokens
	case Sonic:
		return sonicTokens
	case SonicCommercial:
		return sonicCommercialTokens
	default:
		return mariokartTokens
	}
}

// TokenGroups returns the token-group table of the game.
func (g Game) TokenGroups() []TokenGroup {
	switch g {
	case Mario:
		return marioTokenGroups
	case Sonic:
		return sonicTokenGroups
	case SonicCommercial:
		return sonicCommercialTokenGroups
	default:
		return mariokartTokenGroups
	}
}

// GroupTokenList returns one representative token per group, used when
// rendering group-encoded levels.
func GroupTokenList(groups []TokenGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Tokens[0]
	}
	return out
}
