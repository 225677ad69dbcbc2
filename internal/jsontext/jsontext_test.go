package jsontext

import "testing"

func TestStripFences(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n[1,2]\n```":         `[1,2]`,
		"```{\"a\":1}```":         `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		if got := StripFences(in); got != want {
			t.Fatalf("StripFences(%q)=%q want %q", in, got, want)
		}
	}
}

func TestParseAcceptsEmbeddedJSON(t *testing.T) {
	t.Parallel()

	v, ok := Parse(`Here you go: {"id":"42","note":"braces } in \"strings\""} thanks`)
	if !ok {
		t.Fatalf("expected embedded object to parse")
	}
	m, _ := v.(map[string]any)
	if m["id"] != "42" {
		t.Fatalf("id=%v want 42", m["id"])
	}
}

func TestParseRejectsPlainText(t *testing.T) {
	t.Parallel()

	if _, ok := Parse("Task created successfully"); ok {
		t.Fatalf("plain text should not parse")
	}
	if _, ok := Parse("   "); ok {
		t.Fatalf("blank text should not parse")
	}
}

func TestChunksIgnoreMalformedChunk(t *testing.T) {
	t.Parallel()

	raw := `{"discussion":"ok"}{"discussion":bad}[{"x":1}]`
	chunks := Chunks(raw)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %#v", len(chunks), chunks)
	}
	var dst struct {
		Discussion string `json:"discussion"`
	}
	if err := Decode(`noise `+raw, &dst); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dst.Discussion != "ok" {
		t.Fatalf("discussion=%q want ok", dst.Discussion)
	}
}

type decodeTarget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodeFindsEmbeddedObject(t *testing.T) {
	t.Parallel()

	var got decodeTarget
	if err := Decode("Sure: {\"name\":\"ok\",\"count\":2} done", &got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != (decodeTarget{Name: "ok", Count: 2}) {
		t.Fatalf("Decode() = %+v", got)
	}
}

func TestDecodeLeavesTargetUntouchedOnFailure(t *testing.T) {
	t.Parallel()

	got := decodeTarget{Name: "keep", Count: 7}
	if err := Decode(`{"name":"partial","count":"many"}`, &got); err == nil {
		t.Fatal("Decode() error = nil, want type error")
	}
	if got != (decodeTarget{Name: "keep", Count: 7}) {
		t.Fatalf("target modified on failure: %+v", got)
	}
}
