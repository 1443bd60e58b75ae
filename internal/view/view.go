// Package view models the application's navigable pages as a closed set,
// with one place deciding which role may open which page and which live
// collections each page follows. A denied page resolves to no topics at
// all, so an unauthorized viewer never holds a subscription.
package view

import (
	"errors"
	"fmt"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/livefeed"
)

// Page identifies one screen of the application.
type Page string

const (
	PageDashboard   Page = "dashboard"
	PageProduction  Page = "production"
	PageInputs      Page = "inputs"
	PageLabor       Page = "labor"
	PageDiseases    Page = "diseases"
	PageNutrients   Page = "nutrients"
	PageTasks       Page = "tasks"
	PageReports     Page = "reports"
	PageCatalogs    Page = "catalogs"
	PageUsers       Page = "users"
	PageAssignTasks Page = "assign-tasks"
)

// ErrUnknownPage indicates a page name outside the closed set.
var ErrUnknownPage = errors.New("unknown page")

// ErrForbidden indicates the viewer's role may not open the page.
var ErrForbidden = errors.New("page not available for role")

// RequiredRole returns the minimum role a page demands. Unknown pages are
// rejected rather than defaulting open.
func RequiredRole(p Page) (models.Role, error) {
	switch p {
	case PageDashboard, PageProduction, PageInputs, PageLabor,
		PageDiseases, PageNutrients, PageTasks:
		return models.RoleBasic, nil
	case PageReports, PageCatalogs, PageUsers, PageAssignTasks:
		return models.RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPage, p)
}

// allowed reports whether role satisfies required.
func allowed(role, required models.Role) bool {
	if required == models.RoleAdmin {
		return role == models.RoleAdmin
	}
	return role.Valid()
}

// Resolution is the outcome of opening a page: the topics the viewer may
// follow while the page is on screen.
type Resolution struct {
	Page   Page
	Topics []string
}

// Resolve checks the viewer's role against the page and, when permitted,
// returns the page's live topics. On denial the resolution carries no
// topics.
func Resolve(p Page, role models.Role, userID string) (Resolution, error) {
	required, err := RequiredRole(p)
	if err != nil {
		return Resolution{}, err
	}
	if !allowed(role, required) {
		return Resolution{}, fmt.Errorf("%w: %s", ErrForbidden, p)
	}
	return Resolution{Page: p, Topics: topics(p, userID)}, nil
}

// Pages lists the navigation entries available to a role, in menu order.
func Pages(role models.Role) []Page {
	all := []Page{
		PageDashboard, PageProduction, PageInputs, PageLabor,
		PageDiseases, PageNutrients, PageTasks,
		PageReports, PageCatalogs, PageUsers, PageAssignTasks,
	}
	var visible []Page
	for _, p := range all {
		required, err := RequiredRole(p)
		if err != nil {
			continue
		}
		if allowed(role, required) {
			visible = append(visible, p)
		}
	}
	return visible
}

func topics(p Page, userID string) []string {
	switch p {
	case PageDashboard:
		return []string{
			livefeed.TopicCollection(models.CollectionProductionRecords),
			livefeed.TopicCollection(models.CollectionCosts),
			livefeed.TopicCollection(models.CollectionTasks),
		}
	case PageProduction:
		return []string{livefeed.TopicCollection(models.CollectionProductionRecords)}
	case PageInputs:
		return []string{
			livefeed.TopicCollection(models.CollectionInputApplications),
			livefeed.TopicCollection(models.CollectionCosts),
		}
	case PageLabor:
		return []string{livefeed.TopicCollection(models.CollectionLaborRecords)}
	case PageDiseases:
		return []string{livefeed.TopicCollection(models.CollectionDiseaseReports)}
	case PageNutrients:
		return []string{livefeed.TopicCollection(models.CollectionNutrientRecipes)}
	case PageTasks:
		return []string{
			livefeed.TopicCollection(models.CollectionTasks),
			livefeed.TopicUser(userID),
		}
	case PageReports:
		return []string{
			livefeed.TopicCollection(models.CollectionProductionRecords),
			livefeed.TopicCollection(models.CollectionInputApplications),
			livefeed.TopicCollection(models.CollectionCosts),
			livefeed.TopicCollection(models.CollectionLaborRecords),
			livefeed.TopicCollection(models.CollectionDiseaseReports),
		}
	case PageCatalogs:
		return []string{
			livefeed.TopicCollection(models.CollectionLocations),
			livefeed.TopicCollection(models.CollectionUnits),
			livefeed.TopicCollection(models.CollectionInputTypes),
			livefeed.TopicCollection(models.CollectionInputs),
			livefeed.TopicCollection(models.CollectionProducts),
			livefeed.TopicCollection(models.CollectionLaborTypes),
			livefeed.TopicCollection(models.CollectionDiseases),
			livefeed.TopicCollection(models.CollectionNutrientRecipes),
		}
	case PageUsers:
		return []string{livefeed.TopicCollection(models.CollectionUsers)}
	case PageAssignTasks:
		return []string{livefeed.TopicCollection(models.CollectionTasks)}
	}
	return nil
}
