package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/document"
	"github.com/pdfwala/pdfops/overlay"
	"github.com/pdfwala/pdfops/pageops"
	"github.com/pdfwala/pdfops/pipeline"
)

func newEngine(funcs ...pipeline.OptionFunc) *pipeline.Engine {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return pipeline.NewEngine(append([]pipeline.OptionFunc{pipeline.WithLogger(quiet)}, funcs...)...)
}

// testFile serializes a document whose pages show "<label> <n>".
func testFile(t *testing.T, label string, numPages int) pipeline.File {
	t.Helper()
	doc := document.New()
	font, err := doc.EmbedFont(document.Courier)
	if err != nil {
		t.Fatal(err)
	}
	for i := range numPages {
		page, err := doc.NewPage(document.Rectangle{URX: 600, URY: 800})
		if err != nil {
			t.Fatal(err)
		}
		text := fmt.Sprintf("%s %d", label, i+1)
		if err := page.DrawText(document.TextPlacement{Text: text, Font: font, Size: 10, X: 10, Y: 10, Opacity: 1}); err != nil {
			t.Fatal(err)
		}
		if err := doc.AddPage(page); err != nil {
			t.Fatal(err)
		}
	}
	data, err := doc.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	return pipeline.File{Name: label + ".pdf", Data: data}
}

func texts(t *testing.T, data []byte) []string {
	t.Helper()
	doc, err := document.Parse(data)
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	var out []string
	for _, page := range doc.Pages() {
		text, err := page.ExtractText()
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, text)
	}
	return out
}

func TestMerge(t *testing.T) {
	engine := newEngine(pipeline.WithWorkers(2))

	result, err := engine.Merge(context.Background(), []pipeline.File{
		testFile(t, "A", 2), testFile(t, "B", 1), testFile(t, "C", 2),
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if result.Name != pipeline.MergedName || result.ContentType != pipeline.ContentTypePDF {
		t.Errorf("unexpected result %q (%s)", result.Name, result.ContentType)
	}
	want := []string{"A 1", "A 2", "B 1", "C 1", "C 2"}
	if got := texts(t, result.Data); !slices.Equal(got, want) {
		t.Errorf("pages %q, want %q", got, want)
	}
}

func TestMergeRequiresTwoFiles(t *testing.T) {
	engine := newEngine()
	for _, files := range [][]pipeline.File{nil, {testFile(t, "A", 1)}} {
		if _, err := engine.Merge(context.Background(), files); !errors.Is(err, pdfops.ErrValidation) {
			t.Errorf("%d files: expected validation error, got %v", len(files), err)
		}
	}
}

func TestDeterministicOutput(t *testing.T) {
	engine := newEngine()
	a, b := testFile(t, "A", 2), testFile(t, "B", 2)

	first, err := engine.Merge(context.Background(), []pipeline.File{a, b})
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.Merge(context.Background(), []pipeline.File{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Error("same inputs produced different bytes")
	}
}

func TestSplit(t *testing.T) {
	engine := newEngine(pipeline.WithWorkers(3))

	results, err := engine.Split(context.Background(), testFile(t, "S", 4))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Name != pageops.PageFileName(i) {
			t.Errorf("result %d named %q", i, r.Name)
		}
		want := fmt.Sprintf("S %d", i+1)
		if got := texts(t, r.Data); len(got) != 1 || got[0] != want {
			t.Errorf("result %d: %q, want %q", i, got, want)
		}
	}
}

func TestOrganize(t *testing.T) {
	engine := newEngine()
	params, err := pipeline.ParseOrganizeParams(url.Values{"order": {"[2,0,1]"}})
	if err != nil {
		t.Fatal(err)
	}

	result, err := engine.Organize(context.Background(), testFile(t, "O", 3), params)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	want := []string{"O 3", "O 1", "O 2"}
	if got := texts(t, result.Data); !slices.Equal(got, want) {
		t.Errorf("pages %q, want %q", got, want)
	}
}

func TestOrganizeNullOrderKeepsPages(t *testing.T) {
	params, err := pipeline.ParseOrganizeParams(url.Values{"order": {"null"}})
	if err != nil {
		t.Fatal(err)
	}
	result, err := newEngine().Organize(context.Background(), testFile(t, "N", 3), params)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	want := []string{"N 1", "N 2", "N 3"}
	if got := texts(t, result.Data); !slices.Equal(got, want) {
		t.Errorf("pages %q, want %q", got, want)
	}
}

func TestRotate(t *testing.T) {
	params, err := pipeline.ParseRotateParams(url.Values{"angle": {"90"}, "pages": {"[0, 2]"}})
	if err != nil {
		t.Fatal(err)
	}
	result, err := newEngine().Rotate(context.Background(), testFile(t, "R", 3), params)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if result.Name != pipeline.RotatedName {
		t.Errorf("name %q", result.Name)
	}
	doc, err := document.Parse(result.Data)
	if err != nil {
		t.Fatal(err)
	}
	var got []int
	for _, page := range doc.Pages() {
		got = append(got, page.Rotate)
	}
	if want := []int{90, 0, 90}; !slices.Equal(got, want) {
		t.Errorf("rotations %v, want %v", got, want)
	}

	_, err = newEngine().Rotate(context.Background(), testFile(t, "R", 1), pipeline.RotateParams{Angle: 90, Pages: []int{4}})
	if !errors.Is(err, pdfops.ErrIndexOutOfRange) {
		t.Errorf("expected index out of range, got %v", err)
	}
}

func TestParseRotateParams(t *testing.T) {
	params, err := pipeline.ParseRotateParams(url.Values{"angle": {"-180"}})
	if err != nil {
		t.Fatal(err)
	}
	if params.Angle != -180 || params.Pages != nil {
		t.Errorf("params %+v", params)
	}

	for _, values := range []url.Values{
		{},
		{"angle": {"45"}},
		{"angle": {"ninety"}},
		{"angle": {"90"}, "pages": {"[0,"}},
	} {
		if _, err := pipeline.ParseRotateParams(values); !errors.Is(err, pdfops.ErrValidation) {
			t.Errorf("%v: expected validation error, got %v", values, err)
		}
	}
}

func TestEncryptedInputWithPassword(t *testing.T) {
	data, err := os.ReadFile("testdata/encrypted.pdf")
	if err != nil {
		t.Fatal(err)
	}
	engine := newEngine()

	_, err = engine.ExtractText(context.Background(), pipeline.File{Name: "locked.pdf", Data: data})
	if !errors.Is(err, pdfops.ErrCorruptDocument) {
		t.Errorf("without password: expected corrupt document, got %v", err)
	}

	result, err := engine.ExtractText(context.Background(), pipeline.File{Name: "locked.pdf", Data: data, Password: "owner456"})
	if err != nil {
		t.Fatalf("with password: %v", err)
	}
	if string(result.Data) != "Secret" {
		t.Errorf("text %q, want Secret", result.Data)
	}
}

func TestWatermarkAndPageNumbers(t *testing.T) {
	engine := newEngine()
	file := testFile(t, "W", 3)

	wm, err := engine.Watermark(context.Background(), file, overlay.WatermarkOptions{Text: "DRAFT", Opacity: 0.3})
	if err != nil {
		t.Fatalf("watermark: %v", err)
	}
	numbered, err := engine.PageNumbers(context.Background(), pipeline.File{Name: "wm.pdf", Data: wm.Data},
		overlay.PageNumberOptions{StartPage: 5})
	if err != nil {
		t.Fatalf("page numbers: %v", err)
	}

	want := []string{"W 1 DRAFT 5", "W 2 DRAFT 6", "W 3 DRAFT 7"}
	if got := texts(t, numbered.Data); !slices.Equal(got, want) {
		t.Errorf("pages %q, want %q", got, want)
	}
}

func TestExtractText(t *testing.T) {
	result, err := newEngine().ExtractText(context.Background(), testFile(t, "T", 2))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got := string(result.Data); got != "T 1\n\nT 2" {
		t.Errorf("text %q", got)
	}
	if result.Name != pipeline.TextName {
		t.Errorf("result named %q", result.Name)
	}
}

func TestInspect(t *testing.T) {
	info, err := newEngine().Inspect(context.Background(), testFile(t, "I", 2))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.PageCount != 2 || len(info.Pages) != 2 || info.Pages[1].Width != 600 || info.Pages[1].Height != 800 {
		t.Errorf("unexpected info %+v", info)
	}
	if _, err := json.Marshal(info); err != nil {
		t.Errorf("info does not marshal: %v", err)
	}
}

func TestLimits(t *testing.T) {
	file := testFile(t, "L", 3)

	tests := []struct {
		name   string
		limits pipeline.Limits
		run    func(*pipeline.Engine) error
	}{
		{"file size", pipeline.Limits{MaxFileSize: 100}, func(e *pipeline.Engine) error {
			_, err := e.Split(context.Background(), file)
			return err
		}},
		{"file count", pipeline.Limits{MaxFiles: 2}, func(e *pipeline.Engine) error {
			_, err := e.Merge(context.Background(), []pipeline.File{file, file, file})
			return err
		}},
		{"page count", pipeline.Limits{MaxPages: 2}, func(e *pipeline.Engine) error {
			_, err := e.Inspect(context.Background(), file)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(newEngine(pipeline.WithLimits(tt.limits)))
			if !errors.Is(err, pdfops.ErrResourceLimit) {
				t.Errorf("expected resource limit error, got %v", err)
			}
		})
	}
}

func TestCorruptInput(t *testing.T) {
	_, err := newEngine().Watermark(context.Background(), pipeline.File{Name: "bad.pdf", Data: []byte("not a pdf")},
		overlay.WatermarkOptions{Opacity: 0.3})
	if !errors.Is(err, pdfops.ErrCorruptDocument) {
		t.Errorf("expected corrupt document error, got %v", err)
	}
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(context.Context, []byte) error { return errors.New("rejected") }

func TestVerifierFailureIsInternal(t *testing.T) {
	engine := newEngine(pipeline.WithVerifier(rejectingVerifier{}))
	_, err := engine.Organize(context.Background(), testFile(t, "V", 1), pageops.OrganizeOptions{})
	if !errors.Is(err, pdfops.ErrInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}

type recordingObserver struct {
	mu   sync.Mutex
	jobs []string
}

func (o *recordingObserver) ObserveJob(op string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jobs = append(o.jobs, fmt.Sprintf("%s:%v", op, err == nil))
}

func TestObserver(t *testing.T) {
	observer := &recordingObserver{}
	engine := newEngine(pipeline.WithObserver(observer))

	engine.Inspect(context.Background(), testFile(t, "X", 1))
	engine.Merge(context.Background(), nil)

	want := []string{"Inspect:true", "Merge:false"}
	if !slices.Equal(observer.jobs, want) {
		t.Errorf("observed %q, want %q", observer.jobs, want)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine().Inspect(ctx, testFile(t, "C", 1))
	if err == nil {
		t.Fatal("expected an error for a canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestParseOrganizeParams(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		order  []int
		rotate map[int]int
		fail   bool
	}{
		{name: "empty", values: url.Values{}},
		{name: "order", values: url.Values{"order": {"[1, 0]"}}, order: []int{1, 0}},
		{name: "null order keeps every page", values: url.Values{"order": {"null"}}},
		{name: "empty order", values: url.Values{"order": {"[]"}}, order: []int{}},
		{name: "rotate object", values: url.Values{"rotate": {`{"0": 90, "2": 180}`}}, rotate: map[int]int{0: 90, 2: 180}},
		{name: "rotate array", values: url.Values{"rotate": {"[null, 270]"}}, rotate: map[int]int{1: 270}},
		{name: "malformed order", values: url.Values{"order": {"[1,"}}, fail: true},
		{name: "malformed rotate", values: url.Values{"rotate": {`{"a": 90}`}}, fail: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := pipeline.ParseOrganizeParams(tt.values)
			if tt.fail {
				if !errors.Is(err, pdfops.ErrValidation) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(opts.Order, tt.order) || (opts.Order == nil) != (tt.order == nil) {
				t.Errorf("order %v, want %v", opts.Order, tt.order)
			}
			if len(opts.Rotate) != len(tt.rotate) {
				t.Fatalf("rotate %v, want %v", opts.Rotate, tt.rotate)
			}
			for k, v := range tt.rotate {
				if opts.Rotate[k] != v {
					t.Errorf("rotate[%d] = %d, want %d", k, opts.Rotate[k], v)
				}
			}
		})
	}
}

func TestParseWatermarkParams(t *testing.T) {
	opts, err := pipeline.ParseWatermarkParams(url.Values{})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Text != "CONFIDENTIAL" || opts.Opacity != 0.3 || opts.Position != overlay.Center {
		t.Errorf("defaults %+v", opts)
	}

	for _, values := range []url.Values{
		{"opacity": {"1.2"}},
		{"opacity": {"-0.5"}},
		{"opacity": {"half"}},
		{"position": {"middle"}},
	} {
		if _, err := pipeline.ParseWatermarkParams(values); !errors.Is(err, pdfops.ErrValidation) {
			t.Errorf("%v: expected validation error, got %v", values, err)
		}
	}
}

func TestParsePageNumberParams(t *testing.T) {
	opts, err := pipeline.ParsePageNumberParams(url.Values{})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Position != overlay.Bottom || opts.Alignment != overlay.AlignCenter || opts.StartPage != 1 {
		t.Errorf("defaults %+v", opts)
	}

	opts, err = pipeline.ParsePageNumberParams(url.Values{"position": {"top"}, "alignment": {"right"}, "startPage": {"-3"}})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Position != overlay.Top || opts.Alignment != overlay.AlignRight || opts.StartPage != -3 {
		t.Errorf("parsed %+v", opts)
	}

	for _, values := range []url.Values{
		{"startPage": {"1.5"}},
		{"position": {"middle"}},
		{"alignment": {"justify"}},
	} {
		if _, err := pipeline.ParsePageNumberParams(values); !errors.Is(err, pdfops.ErrValidation) {
			t.Errorf("%v: expected validation error, got %v", values, err)
		}
	}
}
