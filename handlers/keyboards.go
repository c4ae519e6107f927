package handlers

import (
	"fmt"
	"strconv"

	"go_ads_bot/ads"
	"go_ads_bot/messages"

	"github.com/go-telegram/bot/models"
)

func mainMenu() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: messages.BtnAddAd}, {Text: messages.BtnViewDB}},
			{{Text: messages.BtnHelp}},
			{{Text: messages.BtnAdminPanel}},
		},
		ResizeKeyboard:        true,
		InputFieldPlaceholder: "Главное меню",
	}
}

func backButton(data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: messages.BtnBack, CallbackData: data}
}

func adTypeMenu() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: ads.TypeCPM.Label(), CallbackData: cbTypeCPM},
				{Text: ads.TypeFixed.Label(), CallbackData: cbTypeFixed},
			},
			{backButton(cbOpenMenu)},
		},
	}
}

func cancelMenu() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{backButton(cbOpenMenu)}},
	}
}

// editCancelMenu возвращает к карточке записи.
func editCancelMenu(id int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{backButton(payload(actEdit, id))}},
	}
}

func adminMenu() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Редактировать записи", CallbackData: cbEditAds},
				{Text: "Удалить записи", CallbackData: cbDeleteAds},
			},
			{{Text: "Статистика", CallbackData: cbStats}},
			{backButton(cbOpenMenu)},
		},
	}
}

// recordsMenu: по кнопке на запись, payload <action>_<id>.
func recordsMenu(recs []ads.Record, action string) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(recs)+1)
	for _, r := range recs {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         fmt.Sprintf("ID: %d | %s | %s", r.ID, r.Type.Label(), r.Username),
			CallbackData: payload(action, r.ID),
		}})
	}
	rows = append(rows, []models.InlineKeyboardButton{backButton(cbAdmin)})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func recordMenu(r *ads.Record) *models.InlineKeyboardMarkup {
	amountField := ads.FieldProfit
	if r.Type == ads.TypeCPM {
		amountField = ads.FieldCPM
	}
	field := func(text string, f ads.Field) models.InlineKeyboardButton {
		return models.InlineKeyboardButton{Text: text, CallbackData: fieldPayload(f, r.ID)}
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{field("Изменить тип", ads.FieldAdType), field("Изменить дату", ads.FieldDate)},
			{field("Изменить юзер", ads.FieldUsername), field("Изменить время", ads.FieldTime)},
			{field("Изменить условия", ads.FieldConditions), field("Изменить CPM/прибыль", amountField)},
			{
				{Text: "Изменить охват", CallbackData: payload(actReach, r.ID)},
				{Text: "Изменить статус", CallbackData: payload(actStatus, r.ID)},
			},
			{{Text: "Удалить", CallbackData: payload(actDelete, r.ID)}},
			{backButton(cbEditAds)},
		},
	}
}

func payload(action string, id int64) string {
	return action + "_" + strconv.FormatInt(id, 10)
}

func fieldPayload(f ads.Field, id int64) string {
	return payload(actFieldPrefix+string(f), id)
}
