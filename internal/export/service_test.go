package export

import (
	stdzip "archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pixvault/internal/domain"
)

type stubRepo struct {
	assets      map[string]domain.Asset
	collections map[string]domain.Collection
	deleteErr   map[string]error
	deleted     []string
}

func (s *stubRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Asset, error) {
	var out []domain.Asset
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if asset, ok := s.assets[id]; ok {
			out = append(out, asset)
		}
	}
	return out, nil
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	asset, ok := s.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &asset, nil
}

func (s *stubRepo) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	col, ok := s.collections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &col, nil
}

func (s *stubRepo) SelectForCleanup(ctx context.Context, criteria domain.CleanupCriteria) ([]domain.Asset, error) {
	cutoff, hasCutoff := criteria.Cutoff(time.Now())
	var out []domain.Asset
	for _, asset := range s.assets {
		if criteria.WorldID != "" && asset.WorldID != criteria.WorldID {
			continue
		}
		if criteria.Status != "" && asset.Status != criteria.Status {
			continue
		}
		if hasCutoff && !asset.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, asset)
	}
	return out, nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	if err := s.deleteErr[id]; err != nil {
		return err
	}
	if _, ok := s.assets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.assets, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type memBlobs struct {
	files  map[string][]byte
	reads  int
	stats  int
	writes int
}

func newMemBlobs() *memBlobs {
	return &memBlobs{files: make(map[string][]byte)}
}

func (m *memBlobs) Read(ctx context.Context, key string) ([]byte, error) {
	m.reads++
	data, ok := m.files[key]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", key, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (m *memBlobs) Write(ctx context.Context, key string, data []byte) (string, error) {
	m.writes++
	m.files[key] = append([]byte(nil), data...)
	return key, nil
}

func (m *memBlobs) Exists(ctx context.Context, key string) (bool, error) {
	m.stats++
	_, ok := m.files[key]
	return ok, nil
}

func (m *memBlobs) Delete(ctx context.Context, key string) error {
	delete(m.files, key)
	return nil
}

func testService(repo *stubRepo, blobs *memBlobs) *Service {
	return NewService(repo, blobs, zerolog.Nop())
}

func testAsset(id, fileName string, size int64) domain.Asset {
	return domain.Asset{
		ID:               id,
		Name:             "asset " + id,
		AssetType:        "character",
		FileRef:          "blobs/" + id,
		OriginalFileName: fileName,
		FileSize:         size,
		MimeType:         "image/png",
		Status:           domain.AssetStatusActive,
		CreatedAt:        time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}
}

func fixture(ids ...string) (*stubRepo, *memBlobs) {
	repo := &stubRepo{
		assets:      make(map[string]domain.Asset),
		collections: make(map[string]domain.Collection),
		deleteErr:   make(map[string]error),
	}
	blobs := newMemBlobs()
	for i, id := range ids {
		asset := testAsset(id, id+".png", int64(100+i))
		repo.assets[id] = asset
		blobs.files[asset.FileRef] = []byte("payload-" + id)
	}
	return repo, blobs
}

func readArchive(t *testing.T, buf *bytes.Buffer) *stdzip.Reader {
	t.Helper()
	r, err := stdzip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	return r
}

func entryData(t *testing.T, f *stdzip.File) []byte {
	t.Helper()
	rc, err := f.Open()
	if err != nil {
		t.Fatalf("open entry %s: %v", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read entry %s: %v", f.Name, err)
	}
	return data
}

func decodeManifest(t *testing.T, r *stdzip.Reader) *domain.Manifest {
	t.Helper()
	for _, f := range r.File {
		if f.Name == "manifest.json" {
			var m domain.Manifest
			if err := json.Unmarshal(entryData(t, f), &m); err != nil {
				t.Fatalf("decode manifest: %v", err)
			}
			return &m
		}
	}
	t.Fatal("manifest.json not found in archive")
	return nil
}

func TestExportAssetsOriginal(t *testing.T) {
	repo, blobs := fixture("a", "b", "c")
	svc := testService(repo, blobs)

	buf := &bytes.Buffer{}
	report, err := svc.ExportAssets(context.Background(), domain.ExportRequest{AssetIDs: []string{"a", "b", "c"}}, buf)
	if err != nil {
		t.Fatalf("ExportAssets: %v", err)
	}
	if len(report.Exported) != 3 || len(report.Skipped) != 0 {
		t.Fatalf("report = %d exported / %d skipped, want 3/0", len(report.Exported), len(report.Skipped))
	}

	r := readArchive(t, buf)
	if len(r.File) != 4 {
		t.Fatalf("archive has %d entries, want 4 (3 assets + manifest)", len(r.File))
	}
	manifest := decodeManifest(t, r)
	if manifest.TotalAssets != 3 {
		t.Fatalf("manifest.TotalAssets = %d, want 3", manifest.TotalAssets)
	}
	if manifest.TotalAssets != len(r.File)-1 {
		t.Fatalf("manifest count %d != archive entries %d minus manifest", manifest.TotalAssets, len(r.File))
	}
	if manifest.Format != domain.FormatOriginal {
		t.Fatalf("manifest.Format = %q, want original", manifest.Format)
	}

	// Original format exports bytes verbatim.
	if got := entryData(t, r.File[0]); !bytes.Equal(got, []byte("payload-a")) {
		t.Fatalf("entry bytes = %q, want stored source", got)
	}
	if r.File[0].Name != "assets/a.png" {
		t.Fatalf("first entry = %q, want assets/a.png", r.File[0].Name)
	}
}

func TestExportOrderFollowsRequest(t *testing.T) {
	repo, blobs := fixture("a", "b", "c")
	svc := testService(repo, blobs)

	buf := &bytes.Buffer{}
	report, err := svc.ExportAssets(context.Background(), domain.ExportRequest{AssetIDs: []string{"c", "a", "b"}}, buf)
	if err != nil {
		t.Fatalf("ExportAssets: %v", err)
	}
	want := []string{"c", "a", "b"}
	for i, entry := range report.Exported {
		if entry.ID != want[i] {
			t.Fatalf("Exported[%d].ID = %q, want %q", i, entry.ID, want[i])
		}
	}
}

func TestExportOmitsMissingIDs(t *testing.T) {
	repo, blobs := fixture("a", "b")
	svc := testService(repo, blobs)

	buf := &bytes.Buffer{}
	report, err := svc.ExportAssets(context.Background(), domain.ExportRequest{AssetIDs: []string{"a", "ghost", "b"}}, buf)
	if err != nil {
		t.Fatalf("ExportAssets: %v", err)
	}
	// Unresolvable ids are omitted by the gateway, not reported as skips.
	if len(report.Exported) != 2 || len(report.Skipped) != 0 {
		t.Fatalf("report = %d exported / %d skipped, want 2/0", len(report.Exported), len(report.Skipped))
	}
	r := readArchive(t, buf)
	if manifest := decodeManifest(t, r); manifest.TotalAssets != 2 {
		t.Fatalf("manifest.TotalAssets = %d, want 2", manifest.TotalAssets)
	}
}

func TestExportSkipsMissingBlob(t *testing.T) {
	repo, blobs := fixture("a", "b")
	delete(blobs.files, "blobs/b")
	svc := testService(repo, blobs)

	buf := &bytes.Buffer{}
	report, err := svc.ExportAssets(context.Background(), domain.ExportRequest{AssetIDs: []string{"a", "b"}}, buf)
	if err != nil {
		t.Fatalf("ExportAssets: %v", err)
	}
	if len(report.Exported) != 1 {
		t.Fatalf("exported %d, want 1", len(report.Exported))
	}
	if len(report.Skipped) != 1 || report.Skipped[0].AssetID != "b" {
		t.Fatalf("skips = %#v, want one skip for b", report.Skipped)
	}
	// Skipped assets appear in neither the archive nor the manifest.
	r := readArchive(t, buf)
	if len(r.File) != 2 {
		t.Fatalf("archive has %d entries, want 2", len(r.File))
	}
	if manifest := decodeManifest(t, r); manifest.TotalAssets != 1 {
		t.Fatalf("manifest.TotalAssets = %d, want 1", manifest.TotalAssets)
	}
}

func TestExportValidationBeforeStreaming(t *testing.T) {
	repo, blobs := fixture("a")
	svc := testService(repo, blobs)

	tests := []struct {
		name string
		req  domain.ExportRequest
		want error
	}{
		{"no ids", domain.ExportRequest{}, domain.ErrEmptyResult},
		{"only unknown ids", domain.ExportRequest{AssetIDs: []string{"ghost"}}, domain.ErrEmptyResult},
		{"unsupported format", domain.ExportRequest{AssetIDs: []string{"a"}, Format: "bmp"}, domain.ErrUnsupportedFormat},
		{"missing collection", domain.ExportRequest{CollectionID: "nope"}, domain.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			_, err := svc.ExportAssets(context.Background(), tc.req, buf)
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
			if buf.Len() != 0 {
				t.Fatalf("%d bytes written before validation failure", buf.Len())
			}
		})
	}
}

func TestExportCollection(t *testing.T) {
	repo, blobs := fixture("a", "b", "c")
	repo.collections["col"] = domain.Collection{ID: "col", Name: "favorites", AssetIDs: []string{"b", "a"}}
	svc := testService(repo, blobs)

	buf := &bytes.Buffer{}
	report, err := svc.ExportAssets(context.Background(), domain.ExportRequest{CollectionID: "col"}, buf)
	if err != nil {
		t.Fatalf("ExportAssets: %v", err)
	}
	if len(report.Exported) != 2 || report.Exported[0].ID != "b" || report.Exported[1].ID != "a" {
		t.Fatalf("exported order = %#v, want collection membership order b, a", report.Exported)
	}
}

func TestExportEmptyCollection(t *testing.T) {
	repo, blobs := fixture("a")
	repo.collections["empty"] = domain.Collection{ID: "empty", Name: "empty"}
	svc := testService(repo, blobs)

	buf := &bytes.Buffer{}
	_, err := svc.ExportAssets(context.Background(), domain.ExportRequest{CollectionID: "empty"}, buf)
	if !errors.Is(err, domain.ErrEmptyResult) {
		t.Fatalf("error = %v, want ErrEmptyResult", err)
	}
	if buf.Len() != 0 {
		t.Fatal("stream bytes emitted for empty collection")
	}
}

func TestExportWithoutManifest(t *testing.T) {
	repo, blobs := fixture("a", "b")
	svc := testService(repo, blobs)

	off := false
	buf := &bytes.Buffer{}
	if _, err := svc.ExportAssets(context.Background(), domain.ExportRequest{AssetIDs: []string{"a", "b"}, IncludeMetadata: &off}, buf); err != nil {
		t.Fatalf("ExportAssets: %v", err)
	}
	r := readArchive(t, buf)
	if len(r.File) != 2 {
		t.Fatalf("archive has %d entries, want 2 without manifest", len(r.File))
	}
	for _, f := range r.File {
		if f.Name == "manifest.json" {
			t.Fatal("manifest.json present despite include_metadata=false")
		}
	}
}

func pngBlob(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png blob: %v", err)
	}
	return buf.Bytes()
}

func TestExportConvertsToJPEG(t *testing.T) {
	repo, blobs := fixture("a")
	blobs.files["blobs/a"] = pngBlob(t)
	svc := testService(repo, blobs)

	buf := &bytes.Buffer{}
	report, err := svc.ExportAssets(context.Background(), domain.ExportRequest{AssetIDs: []string{"a"}, Format: domain.FormatJPEG}, buf)
	if err != nil {
		t.Fatalf("ExportAssets: %v", err)
	}
	entry := report.Exported[0]
	if entry.FileName != "a.jpg" {
		t.Fatalf("FileName = %q, want a.jpg", entry.FileName)
	}
	if entry.MimeType != "image/jpeg" {
		t.Fatalf("MimeType = %q, want image/jpeg", entry.MimeType)
	}
	if entry.OriginalFileName != "a.png" {
		t.Fatalf("OriginalFileName = %q, want a.png", entry.OriginalFileName)
	}

	r := readArchive(t, buf)
	if r.File[0].Name != "assets/a.jpg" {
		t.Fatalf("entry name = %q, want assets/a.jpg", r.File[0].Name)
	}
	if _, format, err := image.Decode(bytes.NewReader(entryData(t, r.File[0]))); err != nil || format != "jpeg" {
		t.Fatalf("entry decodes as (%q, %v), want jpeg", format, err)
	}
	if entry.FileSize != int64(len(entryData(t, r.File[0]))) {
		t.Fatal("manifest FileSize does not match converted entry size")
	}
}

func TestExportSkipsUndecodableSource(t *testing.T) {
	repo, blobs := fixture("a", "b")
	blobs.files["blobs/a"] = pngBlob(t)
	// b's blob is not a decodable image.
	svc := testService(repo, blobs)

	buf := &bytes.Buffer{}
	report, err := svc.ExportAssets(context.Background(), domain.ExportRequest{AssetIDs: []string{"a", "b"}, Format: domain.FormatPNG}, buf)
	if err != nil {
		t.Fatalf("ExportAssets: %v", err)
	}
	if len(report.Exported) != 1 || len(report.Skipped) != 1 {
		t.Fatalf("report = %d/%d, want 1 exported and 1 skipped", len(report.Exported), len(report.Skipped))
	}
	if report.Skipped[0].AssetID != "b" {
		t.Fatalf("skipped id = %q, want b", report.Skipped[0].AssetID)
	}
}

func TestExportDisambiguatesDuplicateNames(t *testing.T) {
	repo, blobs := fixture("a", "b")
	assetA := repo.assets["a"]
	assetB := repo.assets["b"]
	assetA.OriginalFileName = "render.png"
	assetB.OriginalFileName = "render.png"
	repo.assets["a"] = assetA
	repo.assets["b"] = assetB
	svc := testService(repo, blobs)

	buf := &bytes.Buffer{}
	report, err := svc.ExportAssets(context.Background(), domain.ExportRequest{AssetIDs: []string{"a", "b"}}, buf)
	if err != nil {
		t.Fatalf("ExportAssets: %v", err)
	}
	if report.Exported[0].FileName != "render.png" || report.Exported[1].FileName != "render-2.png" {
		t.Fatalf("file names = %q, %q; want render.png, render-2.png",
			report.Exported[0].FileName, report.Exported[1].FileName)
	}
}

type brokenSink struct {
	writes int
}

func (b *brokenSink) Write(p []byte) (int, error) {
	b.writes++
	return 0, errors.New("connection reset")
}

func TestExportSinkFailureAborts(t *testing.T) {
	repo, blobs := fixture("a", "b", "c")
	svc := testService(repo, blobs)

	sink := &brokenSink{}
	_, err := svc.ExportAssets(context.Background(), domain.ExportRequest{AssetIDs: []string{"a", "b", "c"}}, sink)
	if !errors.Is(err, domain.ErrSinkFailure) {
		t.Fatalf("error = %v, want ErrSinkFailure", err)
	}
	// The orchestrator must stop iterating instead of decoding the rest.
	if blobs.reads > 1 {
		t.Fatalf("%d blob reads after sink failure, want at most 1", blobs.reads)
	}
}

func TestGetAssetFileOriginal(t *testing.T) {
	repo, blobs := fixture("a")
	svc := testService(repo, blobs)

	file, err := svc.GetAssetFile(context.Background(), "a", "", 0)
	if err != nil {
		t.Fatalf("GetAssetFile: %v", err)
	}
	if !bytes.Equal(file.Data, []byte("payload-a")) {
		t.Fatalf("Data = %q, want stored source", file.Data)
	}
	if file.FileName != "a.png" || file.MimeType != "image/png" {
		t.Fatalf("file = %q/%q, want a.png/image/png", file.FileName, file.MimeType)
	}
}

func TestGetAssetFileConverted(t *testing.T) {
	repo, blobs := fixture("a")
	blobs.files["blobs/a"] = pngBlob(t)
	svc := testService(repo, blobs)

	file, err := svc.GetAssetFile(context.Background(), "a", domain.FormatWebP, 80)
	if err != nil {
		t.Fatalf("GetAssetFile: %v", err)
	}
	if file.FileName != "a.webp" || file.MimeType != "image/webp" {
		t.Fatalf("file = %q/%q, want a.webp/image/webp", file.FileName, file.MimeType)
	}
}

func TestGetAssetFileErrors(t *testing.T) {
	repo, blobs := fixture("a")
	delete(blobs.files, "blobs/a")
	svc := testService(repo, blobs)

	if _, err := svc.GetAssetFile(context.Background(), "ghost", "", 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown id error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetAssetFile(context.Background(), "a", "", 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing blob error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetAssetFile(context.Background(), "a", "bmp", 0); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("bad format error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestPreviewReadsNoBlobs(t *testing.T) {
	repo, blobs := fixture("a", "b")
	// Recorded sizes deliberately disagree with actual blob lengths; the
	// preview must report the recorded ones.
	assetA := repo.assets["a"]
	assetA.FileSize = 5000
	repo.assets["a"] = assetA
	assetB := repo.assets["b"]
	assetB.FileSize = 7000
	assetB.AssetType = "scene"
	repo.assets["b"] = assetB
	svc := testService(repo, blobs)

	preview, err := svc.GetExportPreview(context.Background(), []string{"a", "b", "ghost"})
	if err != nil {
		t.Fatalf("GetExportPreview: %v", err)
	}
	if blobs.reads != 0 || blobs.stats != 0 {
		t.Fatalf("preview touched the blob store: %d reads, %d stats", blobs.reads, blobs.stats)
	}
	if preview.TotalAssets != 2 {
		t.Fatalf("TotalAssets = %d, want 2", preview.TotalAssets)
	}
	if preview.TotalSize != 12000 {
		t.Fatalf("TotalSize = %d, want 12000 (sum of recorded sizes)", preview.TotalSize)
	}
	if preview.AssetTypes["character"] != 1 || preview.AssetTypes["scene"] != 1 {
		t.Fatalf("AssetTypes = %#v", preview.AssetTypes)
	}
	if len(preview.Assets) != 2 || preview.Assets[0].ID != "a" || preview.Assets[1].ID != "b" {
		t.Fatalf("Assets = %#v", preview.Assets)
	}
}

func TestCleanupDryRunComputesWithoutDeleting(t *testing.T) {
	repo, blobs := fixture("a", "b", "c")
	svc := testService(repo, blobs)

	criteria := domain.CleanupCriteria{DryRun: true}
	dry, err := svc.CleanupAssets(context.Background(), criteria)
	if err != nil {
		t.Fatalf("CleanupAssets dry run: %v", err)
	}
	if dry.DeletedCount != 3 {
		t.Fatalf("dry DeletedCount = %d, want 3", dry.DeletedCount)
	}
	if len(repo.assets) != 3 || len(blobs.files) != 3 {
		t.Fatal("dry run mutated the backing store")
	}

	criteria.DryRun = false
	real, err := svc.CleanupAssets(context.Background(), criteria)
	if err != nil {
		t.Fatalf("CleanupAssets real run: %v", err)
	}
	if real.DeletedCount != dry.DeletedCount || real.FreedSpace != dry.FreedSpace {
		t.Fatalf("real run (%d, %d) differs from dry run (%d, %d)",
			real.DeletedCount, real.FreedSpace, dry.DeletedCount, dry.FreedSpace)
	}
	if len(real.AssetIDs) != len(dry.AssetIDs) {
		t.Fatalf("real run matched %d ids, dry run %d", len(real.AssetIDs), len(dry.AssetIDs))
	}
	if len(repo.assets) != 0 || len(blobs.files) != 0 {
		t.Fatalf("real run left %d records and %d blobs", len(repo.assets), len(blobs.files))
	}

	// A second real run over the emptied store matches nothing.
	again, err := svc.CleanupAssets(context.Background(), criteria)
	if err != nil {
		t.Fatalf("CleanupAssets second run: %v", err)
	}
	if again.DeletedCount != 0 || again.FreedSpace != 0 {
		t.Fatalf("second run = %#v, want zero matches", again)
	}
}

func TestCleanupFilters(t *testing.T) {
	repo, blobs := fixture("old-failed", "new-failed", "old-archived")
	old := time.Now().Add(-40 * 24 * time.Hour)
	recent := time.Now().Add(-1 * 24 * time.Hour)

	set := func(id string, status domain.AssetStatus, created time.Time, world string) {
		asset := repo.assets[id]
		asset.Status = status
		asset.CreatedAt = created
		asset.WorldID = world
		repo.assets[id] = asset
	}
	set("old-failed", domain.AssetStatusFailed, old, "w1")
	set("new-failed", domain.AssetStatusFailed, recent, "w1")
	set("old-archived", domain.AssetStatusArchived, old, "w2")

	svc := testService(repo, blobs)

	result, err := svc.CleanupAssets(context.Background(), domain.CleanupCriteria{
		Status:        domain.AssetStatusFailed,
		OlderThanDays: 30,
		DryRun:        true,
	})
	if err != nil {
		t.Fatalf("CleanupAssets: %v", err)
	}
	if result.DeletedCount != 1 || result.AssetIDs[0] != "old-failed" {
		t.Fatalf("result = %#v, want only old-failed", result)
	}

	// Absent age filter is a wildcard, not "assets with no age".
	result, err = svc.CleanupAssets(context.Background(), domain.CleanupCriteria{
		Status: domain.AssetStatusFailed,
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("CleanupAssets: %v", err)
	}
	if result.DeletedCount != 2 {
		t.Fatalf("DeletedCount = %d, want 2 with no age filter", result.DeletedCount)
	}

	result, err = svc.CleanupAssets(context.Background(), domain.CleanupCriteria{WorldID: "w2", DryRun: true})
	if err != nil {
		t.Fatalf("CleanupAssets: %v", err)
	}
	if result.DeletedCount != 1 || result.AssetIDs[0] != "old-archived" {
		t.Fatalf("result = %#v, want only old-archived", result)
	}
}

func TestCleanupContinuesPastFailures(t *testing.T) {
	repo, blobs := fixture("a", "b", "c")
	repo.deleteErr["b"] = errors.New("record locked")
	svc := testService(repo, blobs)

	result, err := svc.CleanupAssets(context.Background(), domain.CleanupCriteria{DryRun: false})
	if err != nil {
		t.Fatalf("CleanupAssets: %v", err)
	}
	if result.DeletedCount != 3 {
		t.Fatalf("DeletedCount = %d, want 3 matched", result.DeletedCount)
	}
	if _, ok := repo.assets["b"]; !ok {
		t.Fatal("failing record b should remain")
	}
	if _, ok := repo.assets["a"]; ok {
		t.Fatal("record a should have been deleted despite b failing")
	}
	if _, ok := repo.assets["c"]; ok {
		t.Fatal("record c should have been deleted despite b failing")
	}
}

func TestCleanupDeletesBlobBeforeRecord(t *testing.T) {
	repo, _ := fixture("a")
	tracker := &orderTracker{memBlobs: newMemBlobs(), repo: repo}
	tracker.files["blobs/a"] = []byte("payload-a")
	svc := NewService(&orderRepo{stubRepo: repo, tracker: tracker}, tracker, zerolog.Nop())

	if _, err := svc.CleanupAssets(context.Background(), domain.CleanupCriteria{DryRun: false}); err != nil {
		t.Fatalf("CleanupAssets: %v", err)
	}
	if len(tracker.order) != 2 || tracker.order[0] != "blob" || tracker.order[1] != "record" {
		t.Fatalf("deletion order = %v, want [blob record]", tracker.order)
	}
}

type orderTracker struct {
	*memBlobs
	repo  *stubRepo
	order []string
}

func (o *orderTracker) Delete(ctx context.Context, key string) error {
	o.order = append(o.order, "blob")
	return o.memBlobs.Delete(ctx, key)
}

type orderRepo struct {
	*stubRepo
	tracker *orderTracker
}

func (o *orderRepo) Delete(ctx context.Context, id string) error {
	o.tracker.order = append(o.tracker.order, "record")
	return o.stubRepo.Delete(ctx, id)
}
