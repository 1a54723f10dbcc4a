package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Should extract labeled sections", func(t *testing.T) {
		fields := Parse("Name: Jane Doe\nInterests: Hiking, Reading\n\nLocation: Cafe")

		require.NotNil(t, fields.Name)
		assert.Equal(t, "Jane Doe", *fields.Name)
		assert.Equal(t, []string{"Hiking", "Reading"}, fields.Interests)
		require.NotNil(t, fields.MeetingLocation)
		assert.Equal(t, "Cafe", *fields.MeetingLocation)
		assert.Nil(t, fields.MeetingDate)
	})

	t.Run("Should fall back to verbatim summary without labels", func(t *testing.T) {
		input := "We chatted about the weather for a bit."
		fields := Parse(input)

		assert.Nil(t, fields.Name)
		assert.Nil(t, fields.MeetingLocation)
		assert.Nil(t, fields.MeetingDate)
		assert.Nil(t, fields.Interests)
		require.NotNil(t, fields.Summary)
		assert.Equal(t, input, *fields.Summary)
		require.NotNil(t, fields.RawInput)
		assert.Equal(t, input, *fields.RawInput)
	})

	t.Run("Should leave tags empty without labels", func(t *testing.T) {
		fields := Parse("Talked about tech and sports over coffee.")

		assert.Empty(t, fields.Tags)
		require.NotNil(t, fields.Summary)
	})

	t.Run("Should handle empty input", func(t *testing.T) {
		fields := Parse("")

		require.NotNil(t, fields.Summary)
		assert.Equal(t, "", *fields.Summary)
		assert.Empty(t, fields.Tags)
	})

	t.Run("Should keep the first occurrence of a label", func(t *testing.T) {
		fields := Parse("Name: Alice\nName: Bob")

		require.NotNil(t, fields.Name)
		assert.Equal(t, "Alice", *fields.Name)
	})

	t.Run("Should accept alternative labels case-insensitively", func(t *testing.T) {
		fields := Parse("MET AT: the conference hall\nwhen: last Tuesday")

		require.NotNil(t, fields.MeetingLocation)
		assert.Equal(t, "the conference hall", *fields.MeetingLocation)
		require.NotNil(t, fields.MeetingDate)
		assert.Equal(t, "last Tuesday", *fields.MeetingDate)
	})

	t.Run("Should ignore numbering and bold markers", func(t *testing.T) {
		fields := Parse("1. **Name:** Priya Patel\n## Date: March 3rd")

		require.NotNil(t, fields.Name)
		assert.Equal(t, "Priya Patel", *fields.Name)
		require.NotNil(t, fields.MeetingDate)
		assert.Equal(t, "March 3rd", *fields.MeetingDate)
	})

	t.Run("Should treat placeholders as absent", func(t *testing.T) {
		fields := Parse("Name: Unknown\nLocation: Not provided")

		assert.Nil(t, fields.Name)
		assert.Nil(t, fields.MeetingLocation)
	})

	t.Run("Should let a placeholder take the first occurrence", func(t *testing.T) {
		fields := Parse("Name: Unknown\nName: Bob\nDate: N/A\nWhen: Friday")

		assert.Nil(t, fields.Name)
		assert.Nil(t, fields.MeetingDate)
	})

	t.Run("Should read every label on a line", func(t *testing.T) {
		fields := Parse("Name: Jane\nLocation: Cafe Roma, Date: March 3")

		require.NotNil(t, fields.Name)
		assert.Equal(t, "Jane", *fields.Name)
		require.NotNil(t, fields.MeetingLocation)
		assert.Equal(t, "Cafe Roma, Date: March 3", *fields.MeetingLocation)
		require.NotNil(t, fields.MeetingDate)
		assert.Equal(t, "March 3", *fields.MeetingDate)
	})

	t.Run("Should keep the first occurrence across lines when labels share a line", func(t *testing.T) {
		fields := Parse("Date: Monday\nLocation: Cafe Roma, Date: March 3")

		require.NotNil(t, fields.MeetingDate)
		assert.Equal(t, "Monday", *fields.MeetingDate)
	})

	t.Run("Should match labels inside prose", func(t *testing.T) {
		fields := Parse("Her card said Name: Maria Lopez in big letters")

		require.NotNil(t, fields.Name)
		assert.Equal(t, "Maria Lopez in big letters", *fields.Name)
	})
}

func TestParseInterests(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "comma separated on the label line",
			input: "Interests: chess, jazz ,  , cooking",
			want:  []string{"chess", "jazz", "cooking"},
		},
		{
			name:  "bullets on following lines",
			input: "Interests:\n- hiking\n• climbing • skiing\n* board games\n\nNotes: none",
			want:  []string{"hiking", "climbing", "skiing", "board games"},
		},
		{
			name:  "section ends at the next capitalized line",
			input: "Interests: basketball, nba\nKey Talking Points: the playoffs",
			want:  []string{"basketball", "nba"},
		},
		{
			name:  "interests and goals heading",
			input: "Interests & Goals: running, startups\n\nName: Leo",
			want:  []string{"running", "startups"},
		},
		{
			name:  "label without content",
			input: "Interests:\n\nName: Leo",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input).Interests)
		})
	}
}

func TestExtractTags(t *testing.T) {
	t.Run("Should emit vocabulary order without duplicates", func(t *testing.T) {
		tags := ExtractTags("Sports fan working in FINANCE, loves tech and more tech")
		assert.Equal(t, []string{"#tech", "#finance", "#sports"}, tags)
	})

	t.Run("Should match substrings", func(t *testing.T) {
		assert.Equal(t, []string{"#tech"}, ExtractTags("Works at a technology startup"))
	})

	t.Run("Should be computed for labeled text", func(t *testing.T) {
		fields := Parse("Name: Ana\nMeeting Context: a healthcare design meetup")
		assert.Equal(t, []string{"#design", "#healthcare"}, fields.Tags)
	})
}
