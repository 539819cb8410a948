package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/rs/zerolog/log"

	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/domain"
)

const mapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "kind":        {"type": "keyword"},
      "name":        {"type": "text"},
      "address":     {"type": "text"},
      "city":        {"type": "keyword"},
      "phone":       {"type": "keyword"},
      "type":        {"type": "keyword"},
      "is_24x7":     {"type": "boolean"},
      "location":    {"type": "geo_point"}
    }
  }
}`

type doc struct {
	domain.Resource
	Location *elastic.GeoPoint `json:"location"`
}

type Index struct {
	es    *elastic.Client
	index string
}

func New(url, index string) (*Index, error) {
	c, err := elastic.NewClient(elastic.SetURL(url), elastic.SetSniff(false), elastic.SetHealthcheck(false))
	if err != nil {
		return nil, fmt.Errorf("elastic client: %w", err)
	}
	return &Index{es: c, index: index}, nil
}

// EnsureIndex creates the index with a geo_point mapping when missing.
func (ix *Index) EnsureIndex(ctx context.Context) error {
	exists, err := ix.es.IndexExists(ix.index).Do(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	res, err := ix.es.CreateIndex(ix.index).BodyString(mapping).Do(ctx)
	if err != nil {
		return err
	}
	if !res.Acknowledged {
		log.Warn().Str("index", ix.index).Msg("create index not acknowledged")
	}
	return nil
}

func (ix *Index) IndexResources(ctx context.Context, rs []domain.Resource) error {
	if len(rs) == 0 {
		return nil
	}
	bulk := ix.es.Bulk()
	for _, r := range rs {
		d := doc{Resource: r, Location: elastic.GeoPointFromLatLon(r.Lat, r.Lng)}
		bulk = bulk.Add(elastic.NewBulkIndexRequest().Index(ix.index).Id(r.ID).Doc(d))
	}
	start := time.Now()
	res, err := bulk.Do(ctx)
	if err != nil {
		observability.ObserveExternal("elastic", "bulk", 0, time.Since(start))
		return fmt.Errorf("elastic bulk: %w", err)
	}
	observability.ObserveExternal("elastic", "bulk", 200, time.Since(start))

	var failed []string
	for _, item := range res.Failed() {
		failed = append(failed, item.Id)
	}
	if len(failed) > 0 {
		return fmt.Errorf("elastic bulk: %d failed: %s", len(failed), strings.Join(failed, ","))
	}
	return nil
}

// Nearby returns resources of q.Kind sorted by arc distance from the query point.
func (ix *Index) Nearby(ctx context.Context, q domain.NearbyQuery) (domain.NearbyResult, error) {
	bq := elastic.NewBoolQuery().Filter(elastic.NewTermQuery("kind", string(q.Kind)))
	if q.RadiusKm > 0 {
		bq = bq.Filter(elastic.NewGeoDistanceQuery("location").
			Lat(q.Lat).Lon(q.Lng).
			Distance(fmt.Sprintf("%gkm", q.RadiusKm)))
	}
	if q.Only24x7 {
		bq = bq.Filter(elastic.NewTermQuery("is_24x7", true))
	}
	size := q.Limit
	if size <= 0 {
		size = 10
	}

	start := time.Now()
	res, err := ix.es.Search().
		Index(ix.index).
		Query(bq).
		SortBy(elastic.NewGeoDistanceSort("location").
			Point(q.Lat, q.Lng).
			Asc().
			Unit("km").
			DistanceType("arc").
			IgnoreUnmapped(true)).
		Size(size).
		Do(ctx)
	if err != nil {
		observability.ObserveExternal("elastic", "search", 0, time.Since(start))
		return domain.NearbyResult{}, fmt.Errorf("elastic search: %w", err)
	}
	observability.ObserveExternal("elastic", "search", 200, time.Since(start))

	out := domain.NearbyResult{Items: []domain.NearbyResource{}}
	for _, hit := range res.Hits.Hits {
		var d doc
		if err := json.Unmarshal(hit.Source, &d); err != nil {
			log.Warn().Err(err).Str("id", hit.Id).Msg("skip undecodable hit")
			continue
		}
		if d.Location != nil {
			d.Lat, d.Lng = d.Location.Lat, d.Location.Lon
		}
		out.Items = append(out.Items, domain.NearbyResource{
			Resource:   d.Resource,
			DistanceKm: domain.RoundKm(domain.DistanceKm(q.Lat, q.Lng, d.Lat, d.Lng)),
		})
	}
	out.Count = int(res.TotalHits())
	if out.Count < len(out.Items) {
		out.Count = len(out.Items)
	}
	return out, nil
}
