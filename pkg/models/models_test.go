package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyKeepsInsertionOrder(t *testing.T) {
	tally := Tally{}
	tally.Set("b", 10)
	tally.Set("a", 10)
	tally.Add("b", 2)

	assert.Equal(t, []string{"b", "a"}, tally.Keys())
	assert.Equal(t, 12, tally.Value("b"))

	data, err := json.Marshal(tally)
	require.NoError(t, err)
	assert.Equal(t, `{"b":12,"a":10}`, string(data))

	var decoded Tally
	require.NoError(t, json.Unmarshal([]byte(`{"z":1,"a":2,"m":-3}`), &decoded))
	assert.Equal(t, []string{"z", "a", "m"}, decoded.Keys())
	assert.Equal(t, -3, decoded.Value("m"))
}

func TestTallyRejectsNonObjects(t *testing.T) {
	var decoded Tally
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`{"a":"x"}`), &decoded))
}

func TestTallyValueRange(t *testing.T) {
	var decoded Tally
	require.NoError(t, json.Unmarshal([]byte(`{"a":12.9,"b":-2147483648}`), &decoded))
	assert.Equal(t, 12, decoded.Value("a"))
	assert.Equal(t, -2147483648, decoded.Value("b"))

	assert.Error(t, json.Unmarshal([]byte(`{"a":1e20}`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`{"a":2147483648}`), &decoded))
}

func TestScoreRecordsCarryTypeTag(t *testing.T) {
	score := &FinalScoreResult{
		ScoreBase: ScoreBase{ID: "s1", SessionID: "sess"},
		Scores:    NewTally(TallyEntry{"b", 3}, TallyEntry{"a", 5}),
	}

	data, err := json.Marshal(score)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"final_score","id":"s1","sessionId":"sess","scores":{"b":3,"a":5}}`, string(data))

	decoded, err := DecodeScore(data)
	require.NoError(t, err)

	final, ok := decoded.(*FinalScoreResult)
	require.True(t, ok)
	assert.Equal(t, "sess", final.Base().SessionID)
	assert.Equal(t, []string{"b", "a"}, final.Scores.Keys())
}

func TestScoreListDecodesEveryVariant(t *testing.T) {
	payload := `[
		{"type":"race","id":"1","sessionId":"a","rounds":[{"roundNumber":1,"winnerId":"p","points":2}],"scores":{"p":2},"targetScore":7},
		{"type":"round_based","id":"2","sessionId":"b","rounds":[],"finalTotals":{}},
		{"type":"win_loss","id":"3","sessionId":"c","winnerId":"p","placements":["p","q"]},
		{"type":"final_score","id":"4","sessionId":"d","scores":{"p":1}},
		{"type":"elo","id":"5","sessionId":"e","result":"draw","playerResults":{"p":{"outcome":"draw","ratingBefore":1200,"ratingAfter":1200}}},
		{"type":"cooperative","id":"6","sessionId":"f","levelReached":3,"won":true}
	]`

	var scores ScoreList
	require.NoError(t, json.Unmarshal([]byte(payload), &scores))
	require.Len(t, scores, 6)

	types := make([]ScoringType, 0, len(scores))
	for _, score := range scores {
		types = append(types, score.Type())
	}
	assert.Equal(t, ScoringTypes, types)

	race := scores[0].(*RaceScore)
	assert.Equal(t, 2, race.Scores.Value("p"))
	assert.True(t, race.Replay([]string{"p"}).Equal(race.Scores))
}

func TestScoreListRejectsUnknownType(t *testing.T) {
	var scores ScoreList
	assert.Error(t, json.Unmarshal([]byte(`[{"type":"golf"}]`), &scores))
}

func TestGamePatchRefusesScoringTypeChange(t *testing.T) {
	game := Game{ID: "g", Name: "Chess", ScoringType: ScoringTypeELO}

	same := ScoringTypeELO
	name := "Blitz"
	require.NoError(t, GamePatch{Name: &name, ScoringType: &same}.Apply(&game))
	assert.Equal(t, "Blitz", game.Name)

	other := ScoringTypeWinLoss
	assert.ErrorIs(t, GamePatch{ScoringType: &other}.Apply(&game), ErrScoringTypeImmutable)
	assert.Equal(t, ScoringTypeELO, game.ScoringType)
}

func TestRaceTargetDefaults(t *testing.T) {
	game := Game{ScoringType: ScoringTypeRace}
	assert.Equal(t, DefaultRaceTarget, game.RaceTarget())

	game.Config.TargetScore = IntPtr(3)
	assert.Equal(t, 3, game.RaceTarget())
}
