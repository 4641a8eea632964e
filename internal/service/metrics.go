package service

// Metrics receives domain events for instrumentation.
type Metrics interface {
	CacheResult(name, result string)
	PaymentRecorded()
	ExportFinished(status string)
}

type noopMetrics struct{}

func (noopMetrics) CacheResult(string, string) {}
func (noopMetrics) PaymentRecorded()           {}
func (noopMetrics) ExportFinished(string)      {}
