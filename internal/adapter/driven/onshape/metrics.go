package onshape

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK             = "ok"
	outcomeTransportError = "transport_error"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onshape_api_requests_total",
			Help: "Onshape REST API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	apiDecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onshape_api_decode_errors_total",
			Help: "Successful Onshape responses whose body could not be mapped",
		},
		[]string{"endpoint"},
	)

	tokenRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_token_requests_total",
			Help: "OAuth token endpoint requests by grant type and outcome",
		},
		[]string{"grant_type", "outcome"},
	)
)

func recordAPIRequest(endpoint, outcome string) {
	apiRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

func recordDecodeError(endpoint string) {
	apiDecodeErrorsTotal.WithLabelValues(endpoint).Inc()
}

func recordTokenRequest(grantType, outcome string) {
	tokenRequestsTotal.WithLabelValues(grantType, outcome).Inc()
}

// outcomeStatus labels a non-success status by its exact code so that 401
// and 404 stay distinguishable on dashboards.
func outcomeStatus(code int) string {
	return strconv.Itoa(code)
}
