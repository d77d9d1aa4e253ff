package advisory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	json    string
	text    string
	err     error
	block   bool
	calls   atomic.Int32
	prompts []string
	system  string
}

func (f *fakeOracle) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.prompts = append(f.prompts, prompt)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.json, f.err
}

func (f *fakeOracle) GenerateText(ctx context.Context, prompt, system string) (string, error) {
	f.calls.Add(1)
	f.prompts = append(f.prompts, prompt)
	f.system = system
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func TestAuditRecord_Success(t *testing.T) {
	o := &fakeOracle{json: `{"score": 72, "vulnerabilities": ["phishing"], "recommendations": ["enable 2FA"]}`}
	c := NewClient(o)

	got := c.AuditRecord(context.Background(), "example.com", "neo@x")

	assert.Equal(t, models.AdvisoryResult{
		Score:           72,
		Vulnerabilities: []string{"phishing"},
		Recommendations: []string{"enable 2FA"},
	}, got)
	require.Len(t, o.prompts, 1)
	assert.Contains(t, o.prompts[0], `"example.com"`)
	assert.Contains(t, o.prompts[0], `"neo@x"`)
	assert.Contains(t, o.prompts[0], "risk score (1-100)")
}

func TestAuditRecord_FallsBack(t *testing.T) {
	tests := []struct {
		name   string
		oracle *fakeOracle
	}{
		{name: "transport error", oracle: &fakeOracle{err: errors.New("503")}},
		{name: "not json", oracle: &fakeOracle{json: "I am sorry, Dave"}},
		{name: "missing score", oracle: &fakeOracle{json: `{"vulnerabilities": [], "recommendations": []}`}},
		{name: "empty answer", oracle: &fakeOracle{json: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClient(tt.oracle).AuditRecord(context.Background(), "s", "l")
			assert.Equal(t, FallbackAudit(), got)
		})
	}
}

func TestAuditRecord_NilOracle(t *testing.T) {
	c := NewClient(nil)
	assert.Equal(t, FallbackAudit(), c.AuditRecord(context.Background(), "s", "l"))
	assert.Equal(t, BriefingOffline, c.GlobalBriefing(context.Background()))
}

func TestAuditRecord_NormalisesResult(t *testing.T) {
	tests := []struct {
		name string
		json string
		want models.AdvisoryResult
	}{
		{
			name: "score clamped high",
			json: `{"score": 250, "vulnerabilities": ["a"], "recommendations": ["b"]}`,
			want: models.AdvisoryResult{Score: 100, Vulnerabilities: []string{"a"}, Recommendations: []string{"b"}},
		},
		{
			name: "huge score clamped before conversion",
			json: `{"score": 1e300, "vulnerabilities": [], "recommendations": []}`,
			want: models.AdvisoryResult{Score: 100, Vulnerabilities: []string{}, Recommendations: []string{}},
		},
		{
			name: "huge negative score clamped",
			json: `{"score": -1e300, "vulnerabilities": [], "recommendations": []}`,
			want: models.AdvisoryResult{Score: 1, Vulnerabilities: []string{}, Recommendations: []string{}},
		},
		{
			name: "score clamped low and lists defaulted",
			json: `{"score": 0}`,
			want: models.AdvisoryResult{Score: 1, Vulnerabilities: []string{}, Recommendations: []string{}},
		},
		{
			name: "fractional score rounded",
			json: `{"score": 41.6, "vulnerabilities": [], "recommendations": []}`,
			want: models.AdvisoryResult{Score: 42, Vulnerabilities: []string{}, Recommendations: []string{}},
		},
		{
			name: "fenced json",
			json: "```json\n{\"score\": 10, \"vulnerabilities\": [], \"recommendations\": []}\n```",
			want: models.AdvisoryResult{Score: 10, Vulnerabilities: []string{}, Recommendations: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClient(&fakeOracle{json: tt.json}).AuditRecord(context.Background(), "s", "l")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuditRecord_Timeout(t *testing.T) {
	c := NewClient(&fakeOracle{block: true}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	got := c.AuditRecord(context.Background(), "s", "l")

	assert.Equal(t, FallbackAudit(), got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAuditRecord_RateLimited(t *testing.T) {
	o := &fakeOracle{json: `{"score": 5, "vulnerabilities": [], "recommendations": []}`}
	c := NewClient(o, WithRateLimit(1), WithTimeout(50*time.Millisecond))
	ctx := context.Background()

	assert.Equal(t, 5, c.AuditRecord(ctx, "s", "l").Score)
	assert.Equal(t, FallbackAudit(), c.AuditRecord(ctx, "s", "l"))
	assert.Equal(t, int32(1), o.calls.Load(), "throttled call must not reach the oracle")
}

func TestFallbackAudit_FreshSlices(t *testing.T) {
	a := FallbackAudit()
	a.Vulnerabilities[0] = "mutated"
	assert.Equal(t, "Audit connection failed", FallbackAudit().Vulnerabilities[0])
}

func TestGlobalBriefing(t *testing.T) {
	tests := []struct {
		name   string
		oracle *fakeOracle
		want   string
	}{
		{name: "answer", oracle: &fakeOracle{text: "  Ransomware up 12%. Patch now.  "}, want: "Ransomware up 12%. Patch now."},
		{name: "empty", oracle: &fakeOracle{text: "   "}, want: BriefingEmpty},
		{name: "error", oracle: &fakeOracle{err: errors.New("boom")}, want: BriefingOffline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClient(tt.oracle).GlobalBriefing(context.Background())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, briefingSystem, tt.oracle.system)
		})
	}
}
