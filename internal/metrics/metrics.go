package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailform_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"transport"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailform_mail_send_failure_total",
		Help: "Total number of failed mail sends",
	}, []string{"transport"})
	TemplateOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailform_template_operations_total",
		Help: "Total number of template store operations grouped by operation and outcome",
	}, []string{"operation", "outcome"})
)

func init() {
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(TemplateOperations)
}

// Handler returns an http.Handler exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Outcome maps an error to the outcome label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
