// Package search indexes and queries library notes in Elasticsearch.
// Indexing is best effort: the relational store stays the source of
// truth and callers only log indexing failures.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/sholdev/music_school/internal/models"
)

const NotesIndex = "notes"

func Notes(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Note, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "author"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Note `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	notes := make([]models.Note, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		notes[i] = hit.Source
	}
	return r.Hits.Total.Value, notes, nil
}

func IndexNote(ctx context.Context, es *elasticsearch.Client, index string, note *models.Note) error {
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("search: encode note: %w", err)
	}

	res, err := es.Index(
		index,
		strings.NewReader(string(data)),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(note.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("search: index note: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("search: index note: %s", res.Status())
	}
	return nil
}

func DeleteNote(ctx context.Context, es *elasticsearch.Client, index string, noteID uint) error {
	res, err := es.Delete(
		index,
		strconv.FormatUint(uint64(noteID), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: delete note: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("search: delete note: %s", res.Status())
	}
	return nil
}
