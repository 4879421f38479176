package server

import (
	"pepeboard/internal/models"
	"pepeboard/internal/service"
	"pepeboard/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /posts/:id/comments[?sort=top|newest]
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	order, err := models.ParseCommentOrder(c.Query("sort"))
	if err != nil {
		return respondWithError(c, err)
	}

	comments, err := s.postService.ListComments(c.UserContext(), id, order)
	if err != nil {
		return respondWithError(c, err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}

	return c.JSON(comments)
}

// AddComment handles POST /posts/:id/comments
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Username string `json:"username"`
		Comment  string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.AddComment(c.UserContext(), service.AddCommentInput{
		PostID:   id,
		Username: req.Username,
		Comment:  req.Comment,
	})
	if err != nil {
		return respondWithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// LikeCommentByDate handles POST /posts/:postId/comments/date/:commentDate/like.
// The comment is identified by its exact creation timestamp.
func (s *Server) LikeCommentByDate(c *fiber.Ctx) error {
	postID, idErr := validation.ParseID(c.Params("postId"))
	date, dateErr := parseDateParam(c, "commentDate")
	if idErr != nil || dateErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post ID or comment date"))
	}

	post, err := s.postService.LikeComment(c.UserContext(), postID, date)
	if err != nil {
		return respondWithError(c, err)
	}

	return c.JSON(post)
}

// LikeCommentByID handles POST /posts/:postId/comments/:commentId/like
func (s *Server) LikeCommentByID(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	post, err := s.postService.LikeCommentByID(c.UserContext(), postID, commentID)
	if err != nil {
		return respondWithError(c, err)
	}

	return c.JSON(post)
}
