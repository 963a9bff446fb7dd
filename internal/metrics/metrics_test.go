package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetricFamily はレジストリから指定名のメトリクスファミリーを取得する。
func findMetricFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// labelValue はメトリクスから指定ラベルの値を取得する。
func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordDispatch_CountsByChannelAndResult はチャネル・結果別に送信数が集計されることを検証する。
func TestRecordDispatch_CountsByChannelAndResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDispatch("internal", ResultSuccess)
	c.RecordDispatch("internal", ResultSuccess)
	c.RecordDispatch("sms", ResultFailure)

	mf := findMetricFamily(t, reg, "notifier_dispatch_total")

	got := make(map[string]float64)
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "channel")+"/"+labelValue(m, "result")] = m.GetCounter().GetValue()
	}

	if got["internal/success"] != 2 {
		t.Errorf("internal/success = %v, want 2", got["internal/success"])
	}
	if got["sms/failure"] != 1 {
		t.Errorf("sms/failure = %v, want 1", got["sms/failure"])
	}
	if _, ok := got["sms/success"]; ok {
		t.Error("記録していない sms/success が存在する")
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はステータスコード別のカウンタが増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	mf := findMetricFamily(t, reg, "notifier_http_status_total")

	statusCounts := make(map[string]float64)
	for _, m := range mf.GetMetric() {
		statusCounts[labelValue(m, "status_code")] = m.GetCounter().GetValue()
	}

	if statusCounts["200"] != 2 {
		t.Errorf("http_status_total{status_code=200} = %v, want 2", statusCounts["200"])
	}
	if statusCounts["404"] != 1 {
		t.Errorf("http_status_total{status_code=404} = %v, want 1", statusCounts["404"])
	}
}

// TestRecordGatewayLatency_ObservesHistogram はゲートウェイレイテンシのヒストグラムに値が記録されることを検証する。
func TestRecordGatewayLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGatewayLatency(100 * time.Millisecond)
	c.RecordGatewayLatency(300 * time.Millisecond)

	mf := findMetricFamily(t, reg, "notifier_sms_gateway_latency_seconds")
	h := mf.GetMetric()[0].GetHistogram()

	if h.GetSampleCount() != 2 {
		t.Errorf("sample count = %d, want 2", h.GetSampleCount())
	}
	if sum := h.GetSampleSum(); sum < 0.39 || sum > 0.41 {
		t.Errorf("sample sum = %v, want about 0.4", sum)
	}
}

// TestRecordSessionsCleaned_AddsCount は削除セッション数が加算されることを検証する。
func TestRecordSessionsCleaned_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionsCleaned(3)
	c.RecordSessionsCleaned(0)
	c.RecordSessionsCleaned(4)

	mf := findMetricFamily(t, reg, "notifier_sessions_cleaned_total")
	if val := mf.GetMetric()[0].GetCounter().GetValue(); val != 7 {
		t.Errorf("sessions_cleaned_total = %v, want 7", val)
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat はメトリクスハンドラーがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDispatch("sms", ResultSuccess)
	c.RecordHTTPStatus(201)
	c.RecordGatewayLatency(500 * time.Millisecond)
	c.RecordSessionsCleaned(1)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expectedMetrics := []string{
		"notifier_dispatch_total",
		"notifier_http_status_total",
		"notifier_sms_gateway_latency_seconds",
		"notifier_sessions_cleaned_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestCollector_ImplementsMetricsCollectorInterface はCollectorがMetricsCollectorインターフェースを実装することを検証する。
func TestCollector_ImplementsMetricsCollectorInterface(t *testing.T) {
	reg := prometheus.NewRegistry()
	var _ MetricsCollector = NewCollector(reg)
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordSessionsCleaned(1)
	c2.RecordSessionsCleaned(2)

	val1 := findMetricFamily(t, reg1, "notifier_sessions_cleaned_total").GetMetric()[0].GetCounter().GetValue()
	val2 := findMetricFamily(t, reg2, "notifier_sessions_cleaned_total").GetMetric()[0].GetCounter().GetValue()

	if val1 != 1 {
		t.Errorf("reg1 sessions_cleaned = %v, want 1", val1)
	}
	if val2 != 2 {
		t.Errorf("reg2 sessions_cleaned = %v, want 2", val2)
	}
}
