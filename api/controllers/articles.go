package controllers

import (
	"net/http"

	"github.com/oelhadidy/agrovet-backend/api/middleware"
	"github.com/oelhadidy/agrovet-backend/api/responses"
	"github.com/oelhadidy/agrovet-backend/api/validators"
	"github.com/oelhadidy/agrovet-backend/internal/articles"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

// ArticlesList returns published knowledge-base entries. Admins see drafts too.
func ArticlesList(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := articles.ListParams{
			Cursor:             page.Cursor,
			Limit:              page.Limit,
			Tag:                validators.SanitizeQuery(r.URL.Query().Get("tag"), 40),
			Search:             validators.SanitizeQuery(r.URL.Query().Get("search"), 120),
			IncludeUnpublished: middleware.RoleFromContext(r.Context()) == string(enums.UserRoleAdmin),
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ArticleGet returns one entry, hiding drafts from non-admins.
func ArticleGet(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articleID, err := validators.ParseURLUUID(r, "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		includeUnpublished := middleware.RoleFromContext(r.Context()) == string(enums.UserRoleAdmin)
		article, err := svc.Get(r.Context(), articleID, includeUnpublished)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}

// ArticleFavoriteToggle flips the signed-in user's favorite mark.
func ArticleFavoriteToggle(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		articleID, err := validators.ParseURLUUID(r, "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		favored, err := svc.ToggleFavorite(r.Context(), userID, articleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"favored": favored})
	}
}

// ArticleFavoritesList pages the user's favorite articles.
func ArticleFavoritesList(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListFavorites(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminArticleCreate stores a new entry.
func AdminArticleCreate(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input articles.WriteInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, article)
	}
}

// AdminArticleUpdate replaces an entry's fields.
func AdminArticleUpdate(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articleID, err := validators.ParseURLUUID(r, "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input articles.WriteInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.Update(r.Context(), articleID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}

// AdminArticleDelete removes an entry and its favorite marks.
func AdminArticleDelete(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articleID, err := validators.ParseURLUUID(r, "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), articleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
