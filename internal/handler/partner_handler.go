package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type partnerRequestPayload struct {
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"max=500"`
}

type partnerRespondPayload struct {
	Action string `json:"action" validate:"required,oneof=accept reject"`
}

type partnershipStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=active paused ended"`
}

// PartnerOverview 返回与调用者相关的请求与伙伴关系
func (a *API) PartnerOverview(c *gin.Context) {
	overview, err := a.partners.Overview(currentUserID(c))
	if err != nil {
		a.respondServiceError(c, "partner_overview", err)
		return
	}

	respondOK(c, gin.H{
		"incoming_requests": overview.Incoming,
		"outgoing_requests": overview.Outgoing,
		"partnerships":      overview.Partnerships,
	})
}

// SendPartnerRequest 发出互助邀请
func (a *API) SendPartnerRequest(c *gin.Context) {
	var payload partnerRequestPayload
	if !bindValidated(c, &payload) {
		return
	}

	request, err := a.partners.SendRequest(currentUserID(c), payload.Email, payload.Message)
	if err != nil {
		a.respondServiceError(c, "send_partner_request", err)
		return
	}

	respondOK(c, gin.H{"request": request})
}

// RespondPartnerRequest 接受或拒绝邀请
func (a *API) RespondPartnerRequest(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的请求ID")
		return
	}

	var payload partnerRespondPayload
	if !bindValidated(c, &payload) {
		return
	}

	request, err := a.partners.Respond(currentUserID(c), id, payload.Action == "accept")
	if err != nil {
		a.respondServiceError(c, "respond_partner_request", err)
		return
	}

	respondOK(c, gin.H{"request": request})
}

// UpdatePartnership 调整伙伴关系状态
func (a *API) UpdatePartnership(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的伙伴关系ID")
		return
	}

	var payload partnershipStatusPayload
	if !bindValidated(c, &payload) {
		return
	}

	partnership, err := a.partners.UpdatePartnership(currentUserID(c), id, payload.Status)
	if err != nil {
		a.respondServiceError(c, "update_partnership", err)
		return
	}

	respondOK(c, gin.H{"partnership": partnership})
}

// CancelPartnerRequest 撤回自己发出的未决邀请
func (a *API) CancelPartnerRequest(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "无效的请求ID")
		return
	}

	if err := a.partners.CancelRequest(currentUserID(c), id); err != nil {
		a.respondServiceError(c, "cancel_partner_request", err)
		return
	}

	respondOK(c, gin.H{})
}
