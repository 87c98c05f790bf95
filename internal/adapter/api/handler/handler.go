package handler

import (
	"findit/internal/usecase"
)

var (
	authHandler *AuthHandler
	itemHandler *ItemHandler
	chatHandler *ChatHandler
)

func Setup(
	userUseCase *usecase.UserUseCase,
	itemUseCase *usecase.ItemUseCase,
	chatUseCase *usecase.ChatUseCase,
) {
	authHandler = NewAuthHandler(userUseCase)
	itemHandler = NewItemHandler(itemUseCase, userUseCase)
	chatHandler = NewChatHandler(chatUseCase)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetItemHandler() *ItemHandler {
	return itemHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}
