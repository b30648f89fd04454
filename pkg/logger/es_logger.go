package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
)

// WrapperStruct is the envelope every shipped document is wrapped in.
type WrapperStruct struct {
	LogType   string      `json:"LOGTYPE"`
	Timestamp time.Time   `json:"@timestamp"`
	Data      interface{} `json:"data"`
}

// NewESClient builds a client for the given addresses. An empty address
// list yields a nil client, which turns every shipping call into a no-op.
func NewESClient(addresses []string, username, password string) (*elasticsearch.Client, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return client, nil
}

// SendWrappedLog writes one document to index through the bulk API.
func SendWrappedLog(ctx context.Context, client *elasticsearch.Client, index string, logType string, rawData interface{}) error {
	if client == nil {
		return nil
	}

	payload := WrapperStruct{
		LogType:   logType,
		Timestamp: time.Now().UTC(),
		Data:      rawData,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal log payload: %w", err)
	}

	var buf bytes.Buffer
	meta := fmt.Sprintf(`{"index":{"_index":"%s"}}`, index)
	buf.WriteString(meta)
	buf.WriteByte('\n')
	buf.Write(body)
	buf.WriteByte('\n')

	req := esapi.BulkRequest{
		Body: &buf,
	}

	res, err := req.Do(ctx, client)
	if err != nil {
		return fmt.Errorf("send bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk request rejected: %s", res.String())
	}

	// item-level failures are reported inside a 200 response
	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				Error  json.RawMessage `json:"error,omitempty"`
				Status int             `json:"status"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		Warnf("[SendWrappedLog] could not decode bulk response: %v", err)
		return nil
	}
	if bulkResp.Errors {
		for _, item := range bulkResp.Items {
			if item.Index.Error != nil {
				return fmt.Errorf("bulk item failed (status=%d): %s", item.Index.Status, string(item.Index.Error))
			}
		}
	}

	return nil
}
