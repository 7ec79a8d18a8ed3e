package chat

import "testing"

func TestFlattenText(t *testing.T) {
	tests := []struct {
		name      string
		fragments []Fragment
		want      string
	}{
		{
			name: "nil fragments",
			want: "",
		},
		{
			name:      "single text fragment",
			fragments: []Fragment{{Type: FragmentText, Text: "hello"}},
			want:      "hello",
		},
		{
			name: "multiple text fragments concatenate",
			fragments: []Fragment{
				{Type: FragmentText, Text: "hello"},
				{Type: FragmentText, Text: " "},
				{Type: FragmentText, Text: "world"},
			},
			want: "hello world",
		},
		{
			name: "non-text fragments are dropped",
			fragments: []Fragment{
				{Type: "image", Text: "ignored"},
				{Type: FragmentText, Text: "kept"},
			},
			want: "kept",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlattenText(tt.fragments); got != tt.want {
				t.Errorf("FlattenText() = %q, want %q", got, tt.want)
			}
		})
	}
}
