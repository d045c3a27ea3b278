package assign

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadTAs(t *testing.T) {
	in := "ta_id,name,max_assigned,0,1,2\n" +
		"0,Ada,2,U,w,P\n" +
		"1, Bo ,0,P,P,W\n"
	tas, err := LoadTAs(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []TA{
		{ID: 0, Name: "Ada", MaxAssigned: 2, Prefs: []Preference{Unwilling, Willing, Preferred}},
		{ID: 1, Name: "Bo", MaxAssigned: 0, Prefs: []Preference{Preferred, Preferred, Willing}},
	}, tas)
}

func TestLoadTAsErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"too few":        "ta_id,name,max_assigned\n0,a,1\n",
		"bad id":         "ta_id,name,max_assigned,0\nx,a,1,U\n",
		"bad max":        "ta_id,name,max_assigned,0\n0,a,many,U\n",
		"bad preference": "ta_id,name,max_assigned,0\n0,a,1,X\n",
		"blank pref":     "ta_id,name,max_assigned,0\n0,a,1,\n",
		"ragged":         "ta_id,name,max_assigned,0,1\n0,a,1,U\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadTAs(strings.NewReader(in))
			require.Error(t, err)
		})
	}
}

func TestLoadSections(t *testing.T) {
	in := "section,instructor,daytime,location,students,topic,min_ta,max_ta\n" +
		"0,Smith,R 1145-125,Hall 1,30,Intro,3,5\n" +
		"1,Jones,W 950-1130,Hall 2,20,ML,1,2\n"
	sections, err := LoadSections(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []Section{
		{ID: 0, Daytime: "R 1145-125", MinTA: 3, MaxTA: 5},
		{ID: 1, Daytime: "W 950-1130", MinTA: 1, MaxTA: 2},
	}, sections)
}

func TestLoadSectionsMissingColumn(t *testing.T) {
	_, err := LoadSections(strings.NewReader("section,daytime\n0,M\n"))
	require.ErrorContains(t, err, "min_ta")
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
}
