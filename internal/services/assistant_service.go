package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var errAssistantCatalogRequired = errors.New("assistant service: catalog is required")

// ErrAssistantInvalidInput indicates the caller supplied invalid input.
var ErrAssistantInvalidInput = errors.New("assistant service: invalid input")

// ErrAssistantUnavailable indicates the assistant has no working dependencies.
var ErrAssistantUnavailable = errors.New("assistant service: unavailable")

// AddItemToCartTool is the tool name the live model invokes to add products.
const AddItemToCartTool = "addItemToCart"

const (
	fallbackAnswer   = "I'm here to help with your QFD delivery needs!"
	fallbackCategory = "General"
	outageAnswer     = "Sorry, I am having trouble connecting to help center. Please call customer care at 9876543210."
	outageCategory   = "Error"
)

// HelpDeskClient generates structured help-desk answers.
type HelpDeskClient interface {
	GenerateHelpReply(ctx context.Context, question string) (AssistantReply, error)
}

// Sanitizer strips unsafe markup from model output before it reaches clients.
type Sanitizer interface {
	Sanitize(string) string
}

// AssistantServiceDeps wires the model client and cart collaborators.
type AssistantServiceDeps struct {
	HelpDesk  HelpDeskClient
	Catalog   CatalogService
	Carts     CartService
	Sanitizer Sanitizer
	Logger    func(context.Context, string, map[string]any)
}

type assistantService struct {
	helpDesk HelpDeskClient
	catalog  CatalogService
	carts    CartService
	sanitize func(string) string
	logger   func(context.Context, string, map[string]any)
}

// NewAssistantService constructs an AssistantService enforcing dependency validation.
func NewAssistantService(deps AssistantServiceDeps) (AssistantService, error) {
	if deps.Catalog == nil {
		return nil, errAssistantCatalogRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	sanitize := func(s string) string { return s }
	if deps.Sanitizer != nil {
		sanitize = deps.Sanitizer.Sanitize
	}

	return &assistantService{
		helpDesk: deps.HelpDesk,
		catalog:  deps.Catalog,
		carts:    deps.Carts,
		sanitize: sanitize,
		logger:   logger,
	}, nil
}

// Ask answers a help-desk question. Upstream failures degrade to the
// customer-care fallback instead of an error.
func (s *assistantService) Ask(ctx context.Context, cmd AskAssistantCommand) (AssistantReply, error) {
	if s == nil {
		return AssistantReply{}, ErrAssistantUnavailable
	}

	question := strings.TrimSpace(cmd.Question)
	if question == "" {
		return AssistantReply{}, ErrAssistantInvalidInput
	}

	if s.helpDesk == nil {
		return AssistantReply{Answer: outageAnswer, Category: outageCategory}, nil
	}

	reply, err := s.helpDesk.GenerateHelpReply(ctx, question)
	if err != nil {
		s.logger(ctx, "assistant.helpdesk_failed", map[string]any{
			"userID": strings.TrimSpace(cmd.UserID),
			"error":  err.Error(),
		})
		return AssistantReply{Answer: outageAnswer, Category: outageCategory}, nil
	}

	reply.Answer = strings.TrimSpace(s.sanitize(reply.Answer))
	reply.Category = strings.TrimSpace(reply.Category)
	reply.VideoURL = strings.TrimSpace(reply.VideoURL)
	if reply.Answer == "" {
		reply.Answer = fallbackAnswer
	}
	if reply.Category == "" {
		reply.Category = fallbackCategory
	}
	return reply, nil
}

// ResolveToolCall executes a live tool invocation and returns the tagged
// response payload for the model.
func (s *assistantService) ResolveToolCall(ctx context.Context, cmd AssistantToolCallCommand) (AssistantToolResult, error) {
	if s == nil || s.catalog == nil {
		return AssistantToolResult{}, ErrAssistantUnavailable
	}

	if cmd.Name != AddItemToCartTool {
		return AssistantToolResult{}, ErrAssistantInvalidInput
	}
	uid := strings.TrimSpace(cmd.UserID)
	itemName := strings.TrimSpace(cmd.ItemName)
	if uid == "" || itemName == "" {
		return AssistantToolResult{}, ErrAssistantInvalidInput
	}

	product, err := s.catalog.MatchProduct(ctx, itemName)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return AssistantToolResult{
				CallID:  cmd.CallID,
				Message: fmt.Sprintf("Sorry, I couldn't find %s in stock.", itemName),
			}, nil
		}
		return AssistantToolResult{}, err
	}

	if s.carts != nil {
		if _, err := s.carts.AddItem(ctx, AddCartItemCommand{UserID: uid, ProductID: product.ID}); err != nil {
			return AssistantToolResult{}, err
		}
	}

	s.logger(ctx, "assistant.tool_item_added", map[string]any{
		"userID":    uid,
		"productID": product.ID,
	})
	return AssistantToolResult{
		CallID:  cmd.CallID,
		Message: fmt.Sprintf("Success! Added %s to cart.", product.Name),
		Added:   true,
	}, nil
}
