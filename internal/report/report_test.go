package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"

	"github.com/keatteoh99/medrock/pkg"
)

func sampleRequest() pkg.ReportRequest {
	return pkg.ReportRequest{
		Patient: pkg.PatientInfo{
			PatientID:      "p-42",
			Name:           "Aisha Rahman",
			Age:            34,
			Gender:         "female",
			MedicalHistory: []string{"asthma"},
		},
		Severity:           pkg.SeverityModerate,
		Reason:             "Persistent fever with productive cough for three days.",
		Recommendation:     "See a doctor within 24 hours.",
		Symptoms:           []pkg.Symptom{{Name: "fever", Severity: "moderate", Duration: "3 days"}},
		PossibleConditions: []string{"bronchitis", "pneumonia"},
	}
}

func TestBuildPDFProducesDocument(t *testing.T) {
	data, err := BuildPDF(sampleRequest())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	require.Greater(t, len(data), 1000)
}

func TestBuildPDFRequiresPatientID(t *testing.T) {
	req := sampleRequest()
	req.Patient.PatientID = ""
	_, err := BuildPDF(req)
	require.Error(t, err)
}

func TestBuildPDFMinimalRequest(t *testing.T) {
	data, err := BuildPDF(pkg.ReportRequest{
		Patient:  pkg.PatientInfo{PatientID: "p-1"},
		Severity: pkg.SeverityUnknown,
	})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRecommendedActionsBySeverity(t *testing.T) {
	severe := RecommendedActions(pkg.SeveritySevere)
	require.Contains(t, severe[0], "emergency")

	moderate := RecommendedActions(pkg.SeverityModerate)
	require.Contains(t, moderate[0], "24 to 48 hours")

	mild := RecommendedActions(pkg.SeverityMild)
	require.Contains(t, mild[0], "Rest")
	require.Equal(t, mild, RecommendedActions(pkg.SeverityUnknown))
}

type fakeObjectAPI struct {
	bucket      string
	key         string
	contentType string
	size        int64
	body        []byte
	err         error
}

func (f *fakeObjectAPI) PutObject(_ context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.bucket, f.key, f.size, f.contentType = bucketName, objectName, objectSize, opts.ContentType
	f.body, _ = io.ReadAll(reader)
	return minio.UploadInfo{}, f.err
}

func TestObjectStoreUpload(t *testing.T) {
	api := &fakeObjectAPI{}
	store, err := NewObjectStoreWithAPI(api, "medrock-reports", "https://medrock-reports.s3.amazonaws.com")
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "reports/medical_report_p-42.pdf", []byte("%PDF-1.7"), "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "https://medrock-reports.s3.amazonaws.com/reports/medical_report_p-42.pdf", url)
	require.Equal(t, "medrock-reports", api.bucket)
	require.Equal(t, "reports/medical_report_p-42.pdf", api.key)
	require.Equal(t, "application/pdf", api.contentType)
	require.Equal(t, int64(8), api.size)
	require.Equal(t, []byte("%PDF-1.7"), api.body)
}

func TestObjectStoreUploadError(t *testing.T) {
	api := &fakeObjectAPI{err: errors.New("access denied")}
	store, _ := NewObjectStoreWithAPI(api, "medrock-reports", "")
	_, err := store.Upload(context.Background(), "reports/x.pdf", nil, "application/pdf")
	require.ErrorContains(t, err, "upload report")
}

func TestServiceGenerate(t *testing.T) {
	api := &fakeObjectAPI{}
	store, _ := NewObjectStoreWithAPI(api, "medrock-reports", "https://medrock-reports.s3.amazonaws.com")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(store, logger)
	require.NoError(t, err)

	url, err := svc.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Equal(t, "https://medrock-reports.s3.amazonaws.com/reports/medical_report_p-42.pdf", url)
	require.True(t, bytes.HasPrefix(api.body, []byte("%PDF")))
}
