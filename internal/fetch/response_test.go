package fetch

import (
	"testing"
)

func TestResponseText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        string
	}{
		{"utf-8", "text/html; charset=utf-8", []byte("<p>héllo</p>"), "<p>héllo</p>"},
		{"windows-1251 from header", "text/html; charset=windows-1251", []byte("\xcf\xf0\xe8\xe2\xe5\xf2"), "Привет"},
		{
			"charset from meta tag",
			"text/html",
			[]byte(`<meta charset="windows-1251"><p>` + "\xcf\xf0\xe8\xe2\xe5\xf2" + `</p>`),
			`<meta charset="windows-1251"><p>Привет</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &Response{URL: "https://site.example/", ContentType: tt.contentType, Body: tt.body}
			got, err := r.Text()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	statusErr := &StatusError{URL: "https://site.example/x", StatusCode: 404, Status: "404 Not Found"}
	if statusErr.Error() != "request to https://site.example/x returned 404 Not Found" {
		t.Errorf("unexpected message %q", statusErr.Error())
	}
	bare := &StatusError{URL: "https://site.example/x", StatusCode: 500}
	if bare.Error() != "request to https://site.example/x returned 500" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}
