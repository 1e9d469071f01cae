package web

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/service"
)

type catalogStub struct {
	createClass func(arg *model.Class) (*model.Class, error)
	sections    []*model.Section
}

func (s *catalogStub) GetCatalog(_ context.Context) (*model.Catalog, error) {
	return &model.Catalog{Sections: s.sections, Classes: []*model.Class{}}, nil
}

func (s *catalogStub) GetSections(_ context.Context) ([]*model.Section, error) {
	return s.sections, nil
}

func (s *catalogStub) GetSection(_ context.Context, id int) (
	*model.Section, error,
) {
	for _, sec := range s.sections {
		if sec.ID == id {
			return sec, nil
		}
	}
	return nil, service.ErrNotFound
}

func (s *catalogStub) CreateSection(_ context.Context, name string) (
	*model.Section, error,
) {
	return &model.Section{ID: 99, Name: name}, nil
}

func (s *catalogStub) RenameSection(_ context.Context, _ int, _ string) error {
	return nil
}

func (s *catalogStub) DeleteSection(_ context.Context, _ int) error {
	return nil
}

func (s *catalogStub) GetClasses(_ context.Context) ([]*model.Class, error) {
	return []*model.Class{}, nil
}

func (s *catalogStub) GetClass(_ context.Context, _ int) (*model.Class, error) {
	return nil, service.ErrNotFound
}

func (s *catalogStub) CreateClass(_ context.Context, arg *model.Class) (
	*model.Class, error,
) {
	return s.createClass(arg)
}

func (s *catalogStub) UpdateClass(_ context.Context, arg *model.Class) (
	*model.Class, error,
) {
	return arg, nil
}

func (s *catalogStub) DeleteClass(_ context.Context, _ int) error {
	return nil
}

func TestCreateClassConfigurationError(t *testing.T) {
	server := NewServer(WithCatalogAPI(&catalogStub{
		createClass: func(_ *model.Class) (*model.Class, error) {
			return nil, &service.ConfigurationError{
				Reason: "class needs at least one lap, got 0",
			}
		},
	}))
	rec := doRequest(t, server, http.MethodPost, "/api/classes", "",
		`{"name":"Sportsman","laps":0,"sectionIds":[1]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "invalidConfiguration", resp.Reason)
	assert.Contains(t, resp.Message, "at least one lap")
}

func TestSectionEndpoints(t *testing.T) {
	stub := &catalogStub{
		sections: []*model.Section{{ID: 1, Name: "Rocks"}},
		createClass: func(arg *model.Class) (*model.Class, error) {
			return arg, nil
		},
	}
	server := NewServer(WithCatalogAPI(stub))

	rec := doRequest(t, server, http.MethodGet, "/api/sections", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sections []*model.Section
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sections))
	assert.Len(t, sections, 1)

	rec = doRequest(t, server, http.MethodGet, "/api/sections/1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/sections/2", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/api/sections", "",
		`{"name":"Boulders"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
