package handlers

import (
	"strconv"
	"strings"
)

// Фиксированные callback_data.
const (
	cbTypeCPM   = "type_cpm"
	cbTypeFixed = "type_fixed"
	cbOpenMenu  = "open_menu"
	cbAdmin     = "admin"
	cbEditAds   = "edit_ads"
	cbDeleteAds = "delete_ads"
	cbStats     = "stats"
)

// Действия с записью: callback_data вида <action>_<id>.
const (
	actEdit        = "edit"
	actStatus      = "status"
	actDelete      = "delete"
	actReach       = "reach"
	actFieldPrefix = "field_"
)

// parsePayload делит "<action>_<id>" по последнему "_", в действии тоже
// бывают подчёркивания ("field_payment_status_12").
func parsePayload(data string) (action string, id int64, ok bool) {
	i := strings.LastIndexByte(data, '_')
	if i <= 0 || i == len(data)-1 {
		return "", 0, false
	}
	id, err := strconv.ParseInt(data[i+1:], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return data[:i], id, true
}
