package controllers

import (
	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/pkg/ctx"
)

type VerifyController struct {
	verify *services.VerifyService
}

func NewVerifyController(verify *services.VerifyService) *VerifyController {
	return &VerifyController{verify: verify}
}

func (vc *VerifyController) SendOTP(c *ctx.Context) {
	var in services.SendOTPInput
	if !c.BindJSON(&in) {
		return
	}
	status, err := vc.verify.SendCode(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]string{"status": status})
}

type otpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (vc *VerifyController) VerifyOTP(c *ctx.Context) {
	var in services.VerifyOTPInput
	if !c.BindJSON(&in) {
		return
	}
	ok, err := vc.verify.CheckCode(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	if !ok {
		c.Success(otpResult{Success: false, Message: "Invalid code"})
		return
	}
	c.Success(otpResult{Success: true, Message: "Phone verified"})
}
