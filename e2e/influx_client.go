// Package e2e runs the scheduler service against real InfluxDB and Mosquitto
// containers.
package e2e

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxClient wraps the official InfluxDB v2 client for reading back what
// the service wrote.
type InfluxClient struct {
	org    string
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

// NewInfluxClient creates a client for a running server.
func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{
		org:    org,
		bucket: bucket,
		client: c,
		query:  c.QueryAPI(org),
	}
}

// SetupBucket ensures the organisation and bucket exist.
func (c *InfluxClient) SetupBucket(ctx context.Context) error {
	orgAPI := c.client.OrganizationsAPI()
	org, err := orgAPI.FindOrganizationByName(ctx, c.org)
	if err != nil || org == nil {
		org, err = orgAPI.CreateOrganizationWithName(ctx, c.org)
		if err != nil {
			return fmt.Errorf("create org: %w", err)
		}
	}
	bucketAPI := c.client.BucketsAPI()
	buckets, err := bucketAPI.FindBucketsByOrgName(ctx, c.org)
	if err != nil {
		return err
	}
	if buckets != nil {
		for _, b := range *buckets {
			if b.Name == c.bucket {
				return nil
			}
		}
	}
	if _, err := bucketAPI.CreateBucketWithName(ctx, org, c.bucket); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// CountMeasurement returns the number of points of measurement written in
// the last hour, optionally restricted to one tag value.
func (c *InfluxClient) CountMeasurement(ctx context.Context, measurement, tag, value string) (int, error) {
	flux := fmt.Sprintf(`from(bucket:%q) |> range(start:-1h) |> filter(fn:(r) => r._measurement == %q)`, c.bucket, measurement)
	if tag != "" {
		flux += fmt.Sprintf(` |> filter(fn:(r) => r[%q] == %q)`, tag, value)
	}
	res, err := c.query.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	seen := map[string]bool{}
	for res.Next() {
		r := res.Record()
		seen[fmt.Sprintf("%v|%v", r.Time(), r.ValueByKey("meeting_id"))] = true
	}
	return len(seen), res.Err()
}

// Close releases the underlying client resources.
func (c *InfluxClient) Close() { c.client.Close() }
