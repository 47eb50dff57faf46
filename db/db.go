// Package db fetches chart metadata (title/artist/year) from a local
// DynamoDB-compatible endpoint, keyed by chart file path. Same
// BatchGetItem shape as the teacher's db.GetMidiMetadatas, re-keyed from
// MIDI filename to .mdfs path.
package db

import (
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// ChartMetadata is front-end-authored identity info about a chart that the
// compiler core itself never sees (it lives outside the .mdfs source).
type ChartMetadata struct {
	Title   string
	Artist  string
	Year    uint
	Release string
}

const tableName = "mdfc-chart-metadata"

// GetChartMetadatas looks up metadata for up to 10 chart paths at once,
// mirroring the teacher's own batch-size ceiling.
func GetChartMetadatas(paths []string) map[string]ChartMetadata {
	if len(paths) > 10 {
		panic("db: GetChartMetadatas: not supposed to pass in more than 10 paths!")
	}

	res := make(map[string]ChartMetadata)
	if len(paths) == 0 {
		return res
	}

	var keys []map[string]*dynamodb.AttributeValue
	for _, path := range paths {
		keys = append(keys, map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(path)},
		})
	}

	endpoint := "http://localhost:8000"
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String("localhost"),
		Endpoint: &endpoint,
	})
	if err != nil {
		panic("db: could not create DynamoDB session because: " + err.Error())
	}

	client := dynamodb.New(sess)
	input := &dynamodb.BatchGetItemInput{
		RequestItems: map[string]*dynamodb.KeysAndAttributes{
			tableName: {Keys: keys},
		},
	}
	out, err := client.BatchGetItem(input)
	if err != nil {
		panic("db: error from DynamoDB: " + err.Error())
	}

	for _, item := range out.Responses[tableName] {
		var m ChartMetadata
		if item["Year"] != nil && item["Year"].N != nil {
			year, _ := strconv.ParseUint(*item["Year"].N, 10, 32)
			m.Year = uint(year)
		}
		if item["Artist"] != nil && item["Artist"].S != nil {
			m.Artist = *item["Artist"].S
		}
		if item["Release"] != nil && item["Release"].S != nil {
			m.Release = *item["Release"].S
		}
		if item["Title"] != nil && item["Title"].S != nil {
			m.Title = *item["Title"].S
		}
		res[*item["PK"].S] = m
	}

	return res
}
