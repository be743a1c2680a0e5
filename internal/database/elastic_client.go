package database

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/olivere/elastic/v7"
)

// EmployeeDoc is the Elasticsearch document of an employee.
type EmployeeDoc struct {
	EmpNo     int        `json:"emp_no"`
	BirthDate civil.Date `json:"birth_date"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Gender    string     `json:"gender"`
	HireDate  civil.Date `json:"hire_date"`
}

func newEmployeeDoc(e domain.Employee) EmployeeDoc {
	return EmployeeDoc{
		EmpNo:     e.EmpNo,
		BirthDate: e.BirthDate,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Gender:    e.Gender,
		HireDate:  e.HireDate,
	}
}

func (d EmployeeDoc) Employee() domain.Employee {
	return domain.Employee{
		EmpNo:     d.EmpNo,
		BirthDate: d.BirthDate,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Gender:    d.Gender,
		HireDate:  d.HireDate,
	}
}

// employeeMapping stores names as text plus a lowercased keyword, so
// substring search sees the whole name rather than analysed tokens.
const employeeMapping = `{
	"settings": {
		"analysis": {
			"normalizer": {
				"lowercase_name": {"type": "custom", "filter": ["lowercase"]}
			}
		}
	},
	"mappings": {
		"properties": {
			"emp_no":     {"type": "integer"},
			"birth_date": {"type": "date", "format": "yyyy-MM-dd"},
			"first_name": {"type": "text", "fields": {"keyword": {"type": "keyword", "normalizer": "lowercase_name"}}},
			"last_name":  {"type": "text", "fields": {"keyword": {"type": "keyword", "normalizer": "lowercase_name"}}},
			"gender":     {"type": "keyword"},
			"hire_date":  {"type": "date", "format": "yyyy-MM-dd"}
		}
	}
}`

const searchPageSize = 1000

// ElasticSearchClient keeps the employee index used for name search.
type ElasticSearchClient struct {
	client   *elastic.Client
	index    string
	pageSize int
}

// NewElasticSearchClient creates a new client for Elasticsearch 7.x. Extra
// options are applied after the defaults.
func NewElasticSearchClient(url, index string, opts ...elastic.ClientOptionFunc) (*ElasticSearchClient, error) {
	options := append([]elastic.ClientOptionFunc{
		elastic.SetURL(url),
		elastic.SetSniff(false),
	}, opts...)
	client, err := elastic.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return &ElasticSearchClient{client: client, index: index, pageSize: searchPageSize}, nil
}

// EnsureIndex creates the employee index with its mapping when missing.
func (es *ElasticSearchClient) EnsureIndex(ctx context.Context) error {
	exists, err := es.client.IndexExists(es.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", es.index, err)
	}
	if exists {
		return nil
	}
	if _, err := es.client.CreateIndex(es.index).BodyString(employeeMapping).Do(ctx); err != nil {
		if elastic.IsStatusCode(err, 400) && strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("create index %s: %w", es.index, err)
	}
	return nil
}

// IndexEmployee indexes an employee document using emp_no as ID.
func (es *ElasticSearchClient) IndexEmployee(ctx context.Context, e domain.Employee) error {
	_, err := es.client.Index().
		Index(es.index).
		Id(strconv.Itoa(e.EmpNo)).
		BodyJson(newEmployeeDoc(e)).
		Refresh("true").
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index employee %d: %w", e.EmpNo, err)
	}
	return nil
}

// DeleteEmployee removes the document. A missing document is not an error.
func (es *ElasticSearchClient) DeleteEmployee(ctx context.Context, empNo int) error {
	_, err := es.client.Delete().
		Index(es.index).
		Id(strconv.Itoa(empNo)).
		Refresh("true").
		Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return fmt.Errorf("failed to delete employee %d: %w", empNo, err)
	}
	return nil
}

// SearchEmployeesByName matches name as a case-insensitive substring of
// first_name or last_name. Results are paged with search_after in emp_no
// order until the index runs out of hits.
func (es *ElasticSearchClient) SearchEmployeesByName(ctx context.Context, name string) ([]domain.Employee, error) {
	var (
		employees []domain.Employee
		after     []interface{}
	)
	for {
		search := es.client.Search().
			Index(es.index).
			Query(nameQuery(name)).
			Sort("emp_no", true).
			Size(es.pageSize)
		if after != nil {
			search = search.SearchAfter(after...)
		}
		result, err := search.Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		if result.Hits == nil || len(result.Hits.Hits) == 0 {
			break
		}

		for _, hit := range result.Hits.Hits {
			var doc EmployeeDoc
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				return nil, fmt.Errorf("decode employee %s: %w", hit.Id, err)
			}
			employees = append(employees, doc.Employee())
		}

		if len(result.Hits.Hits) < es.pageSize {
			break
		}
		after = result.Hits.Hits[len(result.Hits.Hits)-1].Sort
		if len(after) == 0 {
			return nil, fmt.Errorf("search page for %q has no sort values", name)
		}
	}
	return employees, nil
}

// nameQuery runs an unanalysed substring match on the lowercased keyword
// sub-fields.
func nameQuery(name string) elastic.Query {
	pattern := "*" + escapeWildcard(strings.ToLower(name)) + "*"
	return elastic.NewBoolQuery().
		Should(
			elastic.NewWildcardQuery("first_name.keyword", pattern).CaseInsensitive(true),
			elastic.NewWildcardQuery("last_name.keyword", pattern).CaseInsensitive(true),
		).
		MinimumNumberShouldMatch(1)
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

// BulkIndexEmployees indexes many employees in one request.
func (es *ElasticSearchClient) BulkIndexEmployees(ctx context.Context, employees []domain.Employee) error {
	bulk := es.client.Bulk()
	for _, e := range employees {
		bulk = bulk.Add(elastic.NewBulkIndexRequest().
			Index(es.index).
			Id(strconv.Itoa(e.EmpNo)).
			Doc(newEmployeeDoc(e)))
	}
	if bulk.NumberOfActions() == 0 {
		return nil
	}

	resp, err := bulk.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}
	if failed := resp.Failed(); len(failed) > 0 && failed[0].Error != nil {
		return fmt.Errorf("bulk item %s failed: %s", failed[0].Id, failed[0].Error.Reason)
	}
	return nil
}

// ScrollAllEmployees walks the whole index.
func (es *ElasticSearchClient) ScrollAllEmployees(ctx context.Context) ([]domain.Employee, error) {
	var all []domain.Employee

	scroll := es.client.Scroll(es.index).
		Size(1000).
		KeepAlive("2m").
		Sort("_doc", true)
	defer scroll.Clear(context.Background())

	for {
		results, err := scroll.Do(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scroll error: %w", err)
		}
		for _, hit := range results.Hits.Hits {
			var doc EmployeeDoc
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				return nil, fmt.Errorf("decode employee %s: %w", hit.Id, err)
			}
			all = append(all, doc.Employee())
		}
	}
	return all, nil
}

// DeleteIndex drops the employee index if it exists.
func (es *ElasticSearchClient) DeleteIndex(ctx context.Context) error {
	exists, err := es.client.IndexExists(es.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", es.index, err)
	}
	if !exists {
		return nil
	}
	if _, err := es.client.DeleteIndex(es.index).Do(ctx); err != nil {
		return fmt.Errorf("delete index %s: %w", es.index, err)
	}
	return nil
}
