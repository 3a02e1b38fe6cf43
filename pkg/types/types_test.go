// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestBoundingBox_Expand(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		deg  float64
		want BoundingBox
	}{
		{
			name: "expand two degrees",
			box:  BoundingBox{MinLat: 10, MaxLat: 25, MinLon: 55, MaxLon: 75},
			deg:  2,
			want: BoundingBox{MinLat: 8, MaxLat: 27, MinLon: 53, MaxLon: 77},
		},
		{
			name: "clamped at the poles",
			box:  BoundingBox{MinLat: -89.5, MaxLat: 89.5, MinLon: 0, MaxLon: 10},
			deg:  2,
			want: BoundingBox{MinLat: -90, MaxLat: 90, MinLon: -2, MaxLon: 12},
		},
		{
			name: "clamped at the antimeridian",
			box:  BoundingBox{MinLat: 0, MaxLat: 5, MinLon: -179.5, MaxLon: 179.5},
			deg:  2,
			want: BoundingBox{MinLat: -2, MaxLat: 7, MinLon: -180, MaxLon: 180},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.box.Expand(tt.deg)
			if got != tt.want {
				t.Errorf("Expand(%v) = %+v, want %+v", tt.deg, got, tt.want)
			}
		})
	}
}

func TestBoundingBox_Contains(t *testing.T) {
	box := BoundingBox{MinLat: 10, MaxLat: 25, MinLon: 55, MaxLon: 75}

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"inside", 15, 60, true},
		{"on the edge", 10, 75, true},
		{"north of the box", 30, 60, false},
		{"west of the box", 15, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Contains(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestBoundingBox_Center(t *testing.T) {
	box := BoundingBox{MinLat: 10, MaxLat: 25, MinLon: 55, MaxLon: 75}
	lat, lon := box.Center()
	if lat != 17.5 || lon != 65 {
		t.Errorf("Center() = (%v, %v), want (17.5, 65)", lat, lon)
	}
}

func TestTimeRange_Widen(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC)

	widened := TimeRange{Start: start, End: end}.Widen(0.5)

	wantStart := start.Add(-15 * 24 * time.Hour)
	wantEnd := end.Add(15 * 24 * time.Hour)
	if !widened.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", widened.Start, wantStart)
	}
	if !widened.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", widened.End, wantEnd)
	}
}

func TestTimeRange_WidenZeroSpan(t *testing.T) {
	at := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	r := TimeRange{Start: at, End: at}
	if got := r.Widen(0.5); got != r {
		t.Errorf("Widen on zero span = %+v, want unchanged", got)
	}
}

func TestAgentMask(t *testing.T) {
	m := MaskOf(AgentMeasurement, AgentSemantic)

	if !m.Has(AgentMeasurement) || !m.Has(AgentSemantic) {
		t.Error("expected measurement and semantic to be set")
	}
	if m.Has(AgentMetadata) {
		t.Error("metadata should not be set")
	}
	if m.IsEmpty() {
		t.Error("mask should not be empty")
	}

	m = m.With(AgentMetadata)
	if !m.Has(AgentMetadata) {
		t.Error("With should add metadata")
	}

	var empty AgentMask
	if !empty.IsEmpty() {
		t.Error("zero mask should be empty")
	}
	if kinds := empty.Kinds(); len(kinds) != 0 {
		t.Errorf("empty mask Kinds() = %v, want none", kinds)
	}
}

func TestAgentMask_KindsOrder(t *testing.T) {
	m := MaskOf(AgentSemantic, AgentMeasurement, AgentMetadata)
	want := []AgentKind{AgentMeasurement, AgentMetadata, AgentSemantic}
	got := m.Kinds()
	if len(got) != len(want) {
		t.Fatalf("Kinds() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Kinds()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestIntent_Clone(t *testing.T) {
	orig := Intent{
		Region:     "Arabian Sea",
		Bounds:     &BoundingBox{MinLat: 10, MaxLat: 25, MinLon: 55, MaxLon: 75},
		TimeRange:  &TimeRange{Start: time.Now().Add(-time.Hour), End: time.Now()},
		Parameters: []string{"temp_adjusted"},
		Agents:     MaskOf(AgentMeasurement),
	}

	clone := orig.Clone()
	clone.Bounds.MinLat = -40
	clone.TimeRange.Start = time.Time{}
	clone.Parameters[0] = "psal_adjusted"

	if orig.Bounds.MinLat != 10 {
		t.Error("clone shares the Bounds pointer")
	}
	if orig.TimeRange.Start.IsZero() {
		t.Error("clone shares the TimeRange pointer")
	}
	if orig.Parameters[0] != "temp_adjusted" {
		t.Error("clone shares the Parameters slice")
	}
}

func TestMeasurement_MarshalJSON(t *testing.T) {
	m := Measurement{
		PlatformNumber: "7902073",
		Time:           time.Date(2023, 3, 15, 12, 0, 0, 0, time.UTC),
		Latitude:       15.5,
		Longitude:      65.2,
		Pressure:       10.2,
		Temperature:    28.4,
		Salinity:       math.NaN(),
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	s := string(data)
	if !strings.Contains(s, `"psal_adjusted":null`) {
		t.Errorf("NaN salinity should marshal as null, got %s", s)
	}
	if !strings.Contains(s, `"temp_adjusted":28.4`) {
		t.Errorf("temperature missing from %s", s)
	}
	if !strings.Contains(s, `"juld":"2023-03-15T12:00:00Z"`) {
		t.Errorf("time should use the juld column name, got %s", s)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if decoded["psal_adjusted"] != nil {
		t.Errorf("decoded salinity = %v, want nil", decoded["psal_adjusted"])
	}
}
