package stats

import (
	"sort"

	"github.com/anovio/tubuin/internal/table"
)

const (
	armyValueFrameRate       = 30
	armyValueIntervalSeconds = 15
)

type unitLifespan struct {
	teamID        int64
	creationFrame int64
	deathFrame    int64
	metalCost     float64
}

type frameValue struct {
	frame int64
	value float64
}

// ArmyValueTimeline computes the total army value for each team at
// fixed time intervals, derived from unit creation/destruction events
// and their unit definitions' metal cost (grounded on
// stats/army_value_timeline.py's calculate()).
func ArmyValueTimeline(in Tables) (*table.Table, error) {
	events, ok := in["unit_events"]
	if !ok || events.NumRows == 0 {
		return nil, nil
	}
	unitDefs, ok := in["unit_defs"]
	if !ok {
		return nil, nil
	}
	defsMap, ok := in["defs_map"]
	if !ok {
		return nil, nil
	}

	frameCol, _ := events.Column("frame")
	eventTypeCol, _ := events.Column("event_type")
	unitIDCol, _ := events.Column("unit_id")
	unitDefIDCol, _ := events.Column("unitDefID")
	teamIDCol, _ := events.Column("unit_team_id")
	if frameCol == nil || eventTypeCol == nil || unitIDCol == nil || unitDefIDCol == nil || teamIDCol == nil {
		return nil, nil
	}

	nameByDefID := stringKeyedByInt(defsMap, "unit_def_id", "unit_name")
	costByName := floatKeyedByString(unitDefs, "unit_name", "metalcost")

	var maxFrame int64
	for _, v := range frameCol.Values {
		if f, ok := asInt64(v); ok && f > maxFrame {
			maxFrame = f
		}
	}

	type finishedEntry struct {
		unitDefID     int64
		teamID        int64
		creationFrame int64
	}
	finishedByUnit := make(map[int64]finishedEntry)
	deathByUnit := make(map[int64]int64)

	for row := 0; row < events.NumRows; row++ {
		eventType, _ := eventTypeCol.Values[row].(string)
		unitID, ok := asInt64(unitIDCol.Values[row])
		if !ok {
			continue
		}
		frame, _ := asInt64(frameCol.Values[row])
		switch eventType {
		case "FINISHED":
			defID, _ := asInt64(unitDefIDCol.Values[row])
			team, _ := asInt64(teamIDCol.Values[row])
			finishedByUnit[unitID] = finishedEntry{unitDefID: defID, teamID: team, creationFrame: frame}
		case "DESTROYED":
			deathByUnit[unitID] = frame
		}
	}

	var lifespans []unitLifespan
	for unitID, f := range finishedByUnit {
		name, ok := nameByDefID[f.unitDefID]
		if !ok || name == "" {
			continue
		}
		cost := costByName[name]
		death, ok := deathByUnit[unitID]
		if !ok {
			death = maxFrame + 1
		}
		lifespans = append(lifespans, unitLifespan{
			teamID:        f.teamID,
			creationFrame: f.creationFrame,
			deathFrame:    death,
			metalCost:     cost,
		})
	}

	if len(lifespans) == 0 {
		out := table.New("army_value_timeline")
		out.AddColumn(&table.Column{Name: "team_id", Dtype: table.Int64, Values: []interface{}{}})
		out.AddColumn(&table.Column{Name: "frame", Dtype: table.Int64, Values: []interface{}{}})
		out.AddColumn(&table.Column{Name: "army_value", Dtype: table.Float64, Values: []interface{}{}})
		return out, nil
	}

	netChangeByTeamFrame := make(map[[2]int64]float64)
	for _, l := range lifespans {
		netChangeByTeamFrame[[2]int64{l.teamID, l.creationFrame}] += l.metalCost
		if l.deathFrame <= maxFrame {
			netChangeByTeamFrame[[2]int64{l.teamID, l.deathFrame}] -= l.metalCost
		}
	}

	valuesByTeam := make(map[int64][]frameValue)
	for key, delta := range netChangeByTeamFrame {
		team, frame := key[0], key[1]
		valuesByTeam[team] = append(valuesByTeam[team], frameValue{frame: frame, value: delta})
	}

	var teams []int64
	for team, fvs := range valuesByTeam {
		sort.Slice(fvs, func(a, b int) bool { return fvs[a].frame < fvs[b].frame })
		var running float64
		for i := range fvs {
			running += fvs[i].value
			fvs[i].value = running
		}
		valuesByTeam[team] = fvs
		teams = append(teams, team)
	}
	sort.Slice(teams, func(a, b int) bool { return teams[a] < teams[b] })

	intervalFrames := int64(armyValueIntervalSeconds * armyValueFrameRate)
	frameSet := map[int64]struct{}{}
	for f := int64(0); f < maxFrame; f += intervalFrames {
		frameSet[f] = struct{}{}
	}
	frameSet[maxFrame] = struct{}{}
	var timeline []int64
	for f := range frameSet {
		timeline = append(timeline, f)
	}
	sort.Slice(timeline, func(a, b int) bool { return timeline[a] < timeline[b] })

	out := table.New("army_value_timeline")
	var outTeam, outFrame, outValue []interface{}
	for _, f := range timeline {
		for _, team := range teams {
			value := lastValueAtOrBefore(valuesByTeam[team], f)
			if value < 0 {
				value = 0
			}
			outFrame = append(outFrame, f)
			outTeam = append(outTeam, team)
			outValue = append(outValue, value)
		}
	}
	out.AddColumn(&table.Column{Name: "frame", Dtype: table.Int64, Values: outFrame})
	out.AddColumn(&table.Column{Name: "team_id", Dtype: table.Int64, Values: outTeam})
	out.AddColumn(&table.Column{Name: "army_value", Dtype: table.Float64, Values: outValue})
	return out, nil
}

// lastValueAtOrBefore returns the cumulative value of the last entry
// with frame <= target, or 0.0 if none exists (the as-of join's
// forward-fill with a leading-gap default of zero).
func lastValueAtOrBefore(fvs []frameValue, target int64) float64 {
	best := 0.0
	for _, fv := range fvs {
		if fv.frame > target {
			break
		}
		best = fv.value
	}
	return best
}

func stringKeyedByInt(t *table.Table, keyCol, valCol string) map[int64]string {
	k, _ := t.Column(keyCol)
	v, _ := t.Column(valCol)
	out := make(map[int64]string)
	if k == nil || v == nil {
		return out
	}
	for i := 0; i < t.NumRows; i++ {
		key, ok := asInt64(k.Values[i])
		if !ok {
			continue
		}
		s, _ := v.Values[i].(string)
		out[key] = s
	}
	return out
}

func floatKeyedByString(t *table.Table, keyCol, valCol string) map[string]float64 {
	k, _ := t.Column(keyCol)
	v, _ := t.Column(valCol)
	out := make(map[string]float64)
	if k == nil || v == nil {
		return out
	}
	for i := 0; i < t.NumRows; i++ {
		key, _ := k.Values[i].(string)
		f, _ := asFloat64(v.Values[i])
		out[key] = f
	}
	return out
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
