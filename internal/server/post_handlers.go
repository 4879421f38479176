package server

import (
	"pepeboard/internal/models"
	"pepeboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /posts[?sort=stored|newest|likes|comments|random]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	order, err := models.ParsePostOrder(c.Query("sort"))
	if err != nil {
		return respondWithError(c, err)
	}

	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{Order: order})
	if err != nil {
		return respondWithError(c, err)
	}

	return c.JSON(posts)
}

// GetPost handles GET /posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondWithError(c, err)
	}

	return c.JSON(post)
}

// CreatePost handles POST /posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return respondWithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// LikePost handles POST /posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.LikePost(c.UserContext(), id)
	if err != nil {
		return respondWithError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), id); err != nil {
		return respondWithError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted"})
}
