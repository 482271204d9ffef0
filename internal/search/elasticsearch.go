package search

import (
	"bytes"
	"context"
	"encoding/json"

	"example.com/tileflow/services/planning/config"
	"example.com/tileflow/services/planning/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexAlert indexes a generated alert so operations can search the full
// history, including alerts that have since been read
func (c *ElasticClient) IndexAlert(ctx context.Context, alert *models.Alert) error {
	doc := map[string]interface{}{
		"id":         alert.ID.String(),
		"created_at": alert.CreatedAt,
		"type":       alert.Type,
		"severity":   alert.Severity,
		"title":      alert.Title,
		"message":    alert.Message,
		"is_read":    alert.IsRead,
	}
	if alert.ProductID != nil {
		doc["product_id"] = alert.ProductID.String()
	}
	if alert.ShipmentID != nil {
		doc["shipment_id"] = alert.ShipmentID.String()
	}

	docJson, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal alert document")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: alert.ID.String(),
		Body:       bytes.NewReader(docJson),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	log.Debug().Str("alert_id", alert.ID.String()).Str("type", alert.Type).Msg("alert indexed")
	return nil
}

// SearchAlerts searches the alert history with the given criteria
func (c *ElasticClient) SearchAlerts(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error) {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	hits, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected search result format")
	}

	hitsArray, ok := hits["hits"].([]interface{})
	if !ok {
		return nil, errors.New("unexpected hits format")
	}

	var docs []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}

		docs = append(docs, source)
	}

	return docs, nil
}
