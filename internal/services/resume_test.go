package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type fakeParser struct {
	content *PDFContent
	err     error
}

func (f *fakeParser) ExtractText([]byte) (*PDFContent, error) {
	return f.content, f.err
}

type memoryStore struct {
	objects map[string]string
	err     error
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader) error {
	if m.err != nil {
		return m.err
	}
	data, _ := io.ReadAll(body)
	m.objects[key] = string(data)
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(m.objects[key])), nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestResumeUpload(t *testing.T) {
	objects := &memoryStore{objects: map[string]string{}}
	svc := NewResumeService(objects, &fakeParser{content: &PDFContent{Text: "Jane Doe", PageCount: 2}}, 1024, nil)

	resp, err := svc.Upload(context.Background(), testUser, "resume.pdf", []byte("%PDF-1.7 body"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resp.Text != "Jane Doe" || resp.PageCount != 2 || resp.OriginalName != "resume.pdf" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if objects.objects[resp.Key] != "%PDF-1.7 body" {
		t.Fatalf("original file not archived under %q", resp.Key)
	}
}

func TestResumeUploadValidation(t *testing.T) {
	parser := &fakeParser{content: &PDFContent{Text: "x", PageCount: 1}}

	tests := []struct {
		name     string
		filename string
		data     []byte
		parser   *fakeParser
		store    *memoryStore
		want     error
	}{
		{name: "not a pdf", filename: "resume.docx", data: []byte("x"), parser: parser, want: ErrInvalidInput},
		{name: "empty", filename: "resume.pdf", parser: parser, want: ErrInvalidInput},
		{name: "too large", filename: "resume.pdf", data: make([]byte, 2048), parser: parser, want: ErrInvalidInput},
		{name: "unreadable", filename: "resume.pdf", data: []byte("x"), parser: &fakeParser{err: errors.New("bad xref")}, want: ErrInvalidInput},
		{name: "store failure", filename: "resume.pdf", data: []byte("x"), parser: parser, store: &memoryStore{err: errors.New("disk full")}, want: ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store
			if store == nil {
				store = &memoryStore{objects: map[string]string{}}
			}
			svc := NewResumeService(store, tt.parser, 1024, nil)

			_, err := svc.Upload(context.Background(), testUser, tt.filename, tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPDFParserRejectsGarbage(t *testing.T) {
	if _, err := NewPDFParserService().ExtractText([]byte("not a pdf")); err == nil {
		t.Fatal("expected error for non-PDF input")
	}
}
