package write

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"

	"github.com/shawnli329/SLTMX-Editor/internal/tmx"
	"github.com/shawnli329/SLTMX-Editor/internal/tmx/parse"
)

const sampleTMX = `<?xml version="1.0" encoding="UTF-8"?>
<!-- round-trip fixture -->
<tmx version="1.4">
  <header creationtool="sltmx" datatype="plaintext" segtype="sentence" o-tmf="tmx" srclang="en-US">
    <prop type="origin">writer-test</prop>
  </header>
  <body>
    <tu tuid="u1">
      <note>keep me verbatim</note>
      <tuv xml:lang="en-US">
        <seg>Hello &amp; welcome</seg>
      </tuv>
      <tuv xml:lang="fr-FR">
        <seg>Bonjour</seg>
      </tuv>
    </tu>
    <tu tuid="u2">
      <tuv xml:lang="en-US">
        <seg>Click <bpt i="1">&lt;b&gt;</bpt>here<ept i="1">&lt;/b&gt;</ept> now</seg>
      </tuv>
      <tuv xml:lang="fr-FR">
        <seg>Cliquez ici</seg>
      </tuv>
    </tu>
    <tu tuid="u3">
      <tuv xml:lang="en-US">
        <seg/>
      </tuv>
    </tu>
  </body>
</tmx>
`

func parseString(t *testing.T, input string) *tmx.Document {
	t.Helper()
	doc, err := parse.Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func edit(t *testing.T, doc *tmx.Document, index int, lang, text string) {
	t.Helper()
	u := doc.Units()[index]
	seg := u.Variant(lang)
	if seg == nil {
		t.Fatalf("unit %d has no %s variant", index, lang)
	}
	u.CaptureBaseline()
	seg.SetText(text)
	u.RefreshDirty()
}

func TestRenderUneditedIsByteIdentical(t *testing.T) {
	doc := parseString(t, sampleTMX)

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != sampleTMX {
		t.Errorf("unedited render differs from input:\n%s", string(out))
	}
}

func TestRenderSplicesOnlyEditedSegment(t *testing.T) {
	doc := parseString(t, sampleTMX)
	edit(t, doc, 1, "fr-FR", "Appuyez ici")

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := string(out)

	if !strings.Contains(got, "<seg>Appuyez ici</seg>") {
		t.Error("edited segment not in output")
	}
	if strings.Contains(got, "Cliquez ici") {
		t.Error("old segment content still in output")
	}

	// Everything else survives byte-for-byte, including the inline markup
	// of the untouched sibling variant and the raw aux elements.
	for _, verbatim := range []string{
		"<!-- round-trip fixture -->",
		`<prop type="origin">writer-test</prop>`,
		"<note>keep me verbatim</note>",
		"<seg>Hello &amp; welcome</seg>",
		"<seg>Click <bpt i=\"1\">&lt;b&gt;</bpt>here<ept i=\"1\">&lt;/b&gt;</ept> now</seg>",
	} {
		if !strings.Contains(got, verbatim) {
			t.Errorf("lost verbatim fragment %q", verbatim)
		}
	}

	// Reverting the edit restores the exact input bytes.
	edit(t, doc, 1, "fr-FR", "Cliquez ici")
	out, err = Render(doc)
	if err != nil {
		t.Fatalf("Render after revert: %v", err)
	}
	if string(out) != sampleTMX {
		t.Error("reverted render differs from input")
	}
}

func TestRenderEscapesEditedText(t *testing.T) {
	doc := parseString(t, sampleTMX)
	edit(t, doc, 0, "fr-FR", `1 < 2 & "quotes"`)

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), `<seg>1 &lt; 2 &amp; "quotes"</seg>`) {
		t.Errorf("edited text not escaped: %s", out)
	}

	reparsed := parseString(t, string(out))
	if got := reparsed.Units()[0].Variant("fr-FR").PlainText(); got != `1 < 2 & "quotes"` {
		t.Errorf("escaped text did not survive a reparse: %q", got)
	}
}

func TestRenderExpandsEditedSelfClosingSeg(t *testing.T) {
	doc := parseString(t, sampleTMX)
	edit(t, doc, 2, "en-US", "no longer empty")

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), "<seg>no longer empty</seg>") {
		t.Errorf("self-closing seg not expanded: %s", out)
	}
	if strings.Contains(string(out), "<seg/>") {
		t.Error("self-closing form survived the edit")
	}

	reparsed := parseString(t, string(out))
	if got := reparsed.Units()[2].Variant("en-US").PlainText(); got != "no longer empty" {
		t.Errorf("reparse = %q", got)
	}
}

func TestRenderDropsRemovedUnit(t *testing.T) {
	doc := parseString(t, sampleTMX)
	doc.RemoveUnit(doc.Units()[0].ID)

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := string(out)

	if strings.Contains(got, `tuid="u1"`) || strings.Contains(got, "Bonjour") {
		t.Error("removed unit still in output")
	}
	if !strings.Contains(got, `tuid="u2"`) || !strings.Contains(got, `tuid="u3"`) {
		t.Error("surviving units damaged by removal splice")
	}

	reparsed := parseString(t, got)
	if reparsed.Len() != 2 {
		t.Errorf("reparse Len = %d, want 2", reparsed.Len())
	}
}

func TestRenderInsertsAppendedUnit(t *testing.T) {
	doc := parseString(t, sampleTMX)
	u := doc.AppendUnit(tmx.Attrs{{Name: "tuid", Value: "u4"}}, nil)
	u.SetVariant(&tmx.Segment{Lang: "en-US",
		Attrs: tmx.Attrs{{Name: "xml:lang", Value: "en-US"}},
		Runs:  []tmx.Run{tmx.Text{Value: "brand new"}}})

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	reparsed := parseString(t, string(out))
	if reparsed.Len() != 4 {
		t.Fatalf("reparse Len = %d, want 4", reparsed.Len())
	}
	last := reparsed.Units()[3]
	if last.TUID() != "u4" {
		t.Errorf("appended unit tuid = %q", last.TUID())
	}
	if got := last.Variant("en-US").PlainText(); got != "brand new" {
		t.Errorf("appended unit text = %q", got)
	}
	if !strings.Contains(string(out), "<seg>Hello &amp; welcome</seg>") {
		t.Error("existing units damaged by append splice")
	}
}

func TestRenderStructuralWithoutSource(t *testing.T) {
	doc := tmx.NewDocument()
	doc.Header = tmx.Header{Attrs: tmx.Attrs{
		{Name: "creationtool", Value: "sltmx"},
		{Name: "srclang", Value: "en"},
	}}
	u := doc.AppendUnit(tmx.Attrs{{Name: "tuid", Value: "n1"}}, nil)
	u.SetVariant(&tmx.Segment{Lang: "en",
		Attrs: tmx.Attrs{{Name: "xml:lang", Value: "en"}},
		Runs: []tmx.Run{
			tmx.Text{Value: "with "},
			&tmx.Tag{Name: "ph", Attrs: tmx.Attrs{{Name: "x", Value: "1"}}, SelfClosing: true},
			tmx.Text{Value: " placeholder"},
		}})

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := string(out)

	if !strings.HasPrefix(got, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("missing declaration: %q", got[:40])
	}
	if !strings.Contains(got, `<seg>with <ph x="1"/> placeholder</seg>`) {
		t.Errorf("inline markup mis-rendered:\n%s", got)
	}

	reparsed := parseString(t, got)
	if got := reparsed.Units()[0].Variant("en").PlainText(); got != "with  placeholder" {
		t.Errorf("reparse PlainText = %q", got)
	}
}

func TestWriteReplacesFileAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.tmx")
	if err := os.WriteFile(path, []byte(sampleTMX), 0o640); err != nil {
		t.Fatal(err)
	}

	doc, err := parse.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	edit(t, doc, 0, "fr-FR", "Salut")

	if err := Write(doc, path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<seg>Salut</seg>") {
		t.Error("edit not present after save")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("permissions = %v, want 0640", info.Mode().Perm())
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("stray temp file %s", e.Name())
		}
	}
}

func TestWriteBackupKeepsPreviousContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.tmx")
	if err := os.WriteFile(path, []byte(sampleTMX), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := parse.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	edit(t, doc, 0, "fr-FR", "Salut")

	if err := Write(doc, path, WithBackup(true)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	bak, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if string(bak) != sampleTMX {
		t.Error("backup does not hold the previous content")
	}
}

func TestWriteFailureLeavesTargetUntouched(t *testing.T) {
	doc := parseString(t, sampleTMX)

	err := Write(doc, filepath.Join(t.TempDir(), "no-such-dir", "memory.tmx"))
	if !IsKind(err, KindIO) {
		t.Errorf("err = %v, want kind io", err)
	}
}

func TestRenderUTF16RoundTrip(t *testing.T) {
	utf8Input := strings.Replace(sampleTMX, `encoding="UTF-8"`, `encoding="UTF-16"`, 1)
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	encoded, err := enc.Bytes([]byte(utf8Input))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	input := append([]byte{0xFF, 0xFE}, encoded...)

	doc, err := parse.Parse(context.Background(), bytes.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Error("unedited UTF-16 render differs from input bytes")
	}
}

func TestRenderUnsupportedEncoding(t *testing.T) {
	doc := tmx.NewDocument()
	doc.SourceEncoding = "NO-SUCH-CHARSET"

	_, err := Render(doc)
	if !IsKind(err, KindEncoding) {
		t.Errorf("err = %v, want kind encoding", err)
	}
}
