package catalog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ehr/fhirviewer/internal/platform/fhir"
	"github.com/ehr/fhirviewer/internal/platform/store"
	"github.com/ehr/fhirviewer/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the catalog under api. admin guards the reload
// endpoint.
func (h *Handler) RegisterRoutes(api *echo.Group, admin echo.MiddlewareFunc) {
	api.GET("/specs", h.ListNamespaces)
	api.GET("/specs/:ns/resources", h.ListDefinitions)
	api.GET("/specs/:ns/resources/:name", h.GetDefinition)
	api.GET("/specs/:ns/resources/:name/tree", h.GetTree)
	api.GET("/specs/:ns/resources/:name/compare", h.CompareDefinition)

	api.POST("/admin/reload", h.Reload, admin)
}

type definitionPath struct {
	Namespace string `param:"ns" validate:"required,definition_id"`
	Name      string `param:"name" validate:"omitempty,definition_id"`
}

type listQuery struct {
	Kind string `query:"kind" validate:"omitempty,oneof=resource profile datatype"`
}

type treeQuery struct {
	HideExtensions  bool `query:"hideExtensions"`
	MustSupportOnly bool `query:"mustSupportOnly"`
	MaxDepth        int  `query:"maxDepth" validate:"gte=0,lte=20"`
}

type compareQuery struct {
	BaseNamespace string `query:"baseNs" validate:"omitempty,definition_id"`
}

func bindPath(c echo.Context) (definitionPath, error) {
	p := definitionPath{Namespace: c.Param("ns"), Name: c.Param("name")}
	return p, c.Validate(&p)
}

func bindQuery(c echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

func (h *Handler) ListNamespaces(c echo.Context) error {
	namespaces, err := h.svc.Namespaces(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"namespaces": namespaces})
}

func (h *Handler) ListDefinitions(c echo.Context) error {
	p, err := bindPath(c)
	if err != nil {
		return writeError(c, err)
	}
	var q listQuery
	if err := bindQuery(c, &q); err != nil {
		return writeError(c, err)
	}

	items, err := h.svc.List(c.Request().Context(), p.Namespace, q.Kind)
	if err != nil {
		return writeError(c, err)
	}
	pg := pagination.FromContext(c)
	resp := pagination.Paginate(items, pg)
	resp.Links = pg.Links(c.Request().URL.Path, resp.Total)
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetDefinition(c echo.Context) error {
	p, err := bindPath(c)
	if err != nil {
		return writeError(c, err)
	}
	d, err := h.svc.Get(c.Request().Context(), p.Namespace, p.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetTree(c echo.Context) error {
	p, err := bindPath(c)
	if err != nil {
		return writeError(c, err)
	}
	var q treeQuery
	if err := bindQuery(c, &q); err != nil {
		return writeError(c, err)
	}

	view, err := h.svc.Tree(c.Request().Context(), p.Namespace, p.Name, fhir.FilterOptions{
		HideExtensions:  q.HideExtensions,
		MustSupportOnly: q.MustSupportOnly,
		MaxDepth:        q.MaxDepth,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) CompareDefinition(c echo.Context) error {
	p, err := bindPath(c)
	if err != nil {
		return writeError(c, err)
	}
	var q compareQuery
	if err := bindQuery(c, &q); err != nil {
		return writeError(c, err)
	}

	result, err := h.svc.Compare(c.Request().Context(), p.Namespace, p.Name, q.BaseNamespace)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Reload(c echo.Context) error {
	stats, err := h.svc.Reload(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// writeError renders err as an OperationOutcome with a matching status.
func writeError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &verrs):
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome(validationMessage(verrs)))
	case errors.As(err, &httpErr) && httpErr.Code == http.StatusBadRequest:
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome(fmt.Sprint(httpErr.Message)))
	case errors.Is(err, ErrUnknownNamespace), errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, fhir.NewOperationOutcome(fhir.IssueSeverityError, fhir.IssueTypeNotFound, err.Error()))
	case errors.Is(err, ErrNotProfile):
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome(err.Error()))
	case errors.Is(err, fhir.ErrMalformedDefinition):
		return c.JSON(http.StatusUnprocessableEntity, fhir.StructureOutcome(err.Error()))
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, fhir.InternalErrorOutcome("internal error"))
	}
}

func validationMessage(verrs validator.ValidationErrors) string {
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
