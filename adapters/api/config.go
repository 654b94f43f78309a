package api

import "time"

// DefaultBaseURL is the register's single dispatch endpoint. The server
// routes on the slug/method fields inside the POST body, not on the HTTP
// method of the request itself.
const DefaultBaseURL = "https://www.difc.com/api/handleRequest"

// DefaultTimeout bounds each upstream request. The public site sets no
// timeout; one is required here so a stalled request cannot hang a run.
const DefaultTimeout = 30 * time.Second

const registerSlug = "/CRM/public-register"

// JSON paths of the payload data inside upstream responses.
const (
	listDataPath   = "Data.companyList"
	detailDataPath = "Data.DIFCData.PublicRegistry.0"
)

// browserHeaders must be reproduced exactly: the upstream service inspects
// them for origin validation and rejects requests without them.
var browserHeaders = map[string]string{
	"Content-Type": "text/plain;charset=UTF-8",
	"Accept":       "*/*",
	"User-Agent":   "Mozilla/5.0",
	"Origin":       "https://www.difc.com",
	"Referer":      "https://www.difc.com/business/public-register",
}

// ClientConfig holds settings for the register client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}
