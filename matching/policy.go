package matching

import "campuslink/models"

const (
	DefaultTextThreshold = 0.2
	DefaultAIThreshold   = 0.4
)

// Policy decides whether a found report matches a lost one.
type Policy struct {
	TextThreshold float64
	AIThreshold   float64
}

func DefaultPolicy() Policy {
	return Policy{TextThreshold: DefaultTextThreshold, AIThreshold: DefaultAIThreshold}
}

// Decision carries the scores behind a match verdict.
type Decision struct {
	TextScore float64
	AIScore   float64
	AIUsed    bool
	Match     bool
}

// CombinedText is the item name, description and AI analysis joined by spaces.
func CombinedText(it *models.LostFoundItem) string {
	return it.Item + " " + it.Description + " " + it.GeminiAnalysis
}

// Evaluate scores found against lost.
//
// The combined-text score must reach TextThreshold. When both reports carry an
// AI analysis their analyses must also reach AIThreshold. When only one side
// has an analysis there is nothing to corroborate it against and the pair does
// not match.
func (p Policy) Evaluate(found, lost *models.LostFoundItem) Decision {
	d := Decision{TextScore: Score(CombinedText(found), CombinedText(lost))}
	textOK := d.TextScore >= p.TextThreshold

	switch {
	case found.HasAnalysis() && lost.HasAnalysis():
		d.AIUsed = true
		d.AIScore = Score(found.GeminiAnalysis, lost.GeminiAnalysis)
		d.Match = textOK && d.AIScore >= p.AIThreshold
	case !found.HasAnalysis() && !lost.HasAnalysis():
		d.Match = textOK
	default:
		d.Match = false
	}
	return d
}

func (p Policy) IsMatch(found, lost *models.LostFoundItem) bool {
	return p.Evaluate(found, lost).Match
}
