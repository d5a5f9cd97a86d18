package htmldoc

import (
	"bytes"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "indents nested elements",
			input: `<!DOCTYPE html><html><head><title>T</title><link href="/a.css" rel="stylesheet"></head>` +
				`<body><img src="/a.png" alt="x &amp; y"><p>Hello <b>world</b></p></body></html>`,
			want: `<!DOCTYPE html>
<html>
  <head>
    <title>
      T
    </title>
    <link href="/a.css" rel="stylesheet">
  </head>
  <body>
    <img src="/a.png" alt="x &amp; y">
    <p>
      Hello
      <b>
        world
      </b>
    </p>
  </body>
</html>
`,
		},
		{
			name:  "script content is not escaped",
			input: `<html><head><script>if (a < b && c) {}</script><script src="/a.js"></script></head><body></body></html>`,
			want: `<html>
  <head>
    <script>
      if (a < b && c) {}
    </script>
    <script src="/a.js"></script>
  </head>
  <body></body>
</html>
`,
		},
		{
			name:  "pre keeps its whitespace and comments are kept",
			input: `<html><head></head><body><!-- note --><pre>a  b</pre></body></html>`,
			want: `<html>
  <head></head>
  <body>
    <!-- note -->
    <pre>a  b</pre>
  </body>
</html>
`,
		},
		{
			name:  "text is escaped",
			input: `<html><head></head><body><p>1 &lt; 2</p></body></html>`,
			want: `<html>
  <head></head>
  <body>
    <p>
      1 &lt; 2
    </p>
  </body>
</html>
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			got, err := RenderBytes(doc)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Render mismatch\ngot:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestRenderIsStable(t *testing.T) {
	t.Parallel()

	doc, err := Parse(strings.NewReader(`<html><body><div class="a"><img src="x.png"></div></body></html>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var first, second bytes.Buffer
	if err := Render(&first, doc); err != nil {
		t.Fatal(err)
	}
	if err := Render(&second, doc); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("rendering the same tree twice gave different output")
	}

	// Rendered output parses back to the same rendering.
	again, err := Parse(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	third, err := RenderBytes(again)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), third) {
		t.Errorf("re-parsed rendering differs\nfirst:\n%s\nthird:\n%s", first.Bytes(), third)
	}
}
