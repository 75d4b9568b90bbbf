package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/fifthdraft/fifthdraft-backend/config"
	"github.com/fifthdraft/fifthdraft-backend/models"
	"github.com/fifthdraft/fifthdraft-backend/services"
	"github.com/fifthdraft/fifthdraft-backend/utils"
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Profile
	if err := config.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already in use"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot hash password"})
		return
	}

	// New accounts start on the free tier with its default minute quota.
	profile := models.Profile{
		FullName:     input.FullName,
		Email:        input.Email,
		Password:     string(hashed),
		Tier:         models.TierFree,
		MinutesQuota: services.LimitsForTier(models.TierFree).DefaultMinutesQuota,
	}
	if err := config.DB.Create(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create account"})
		return
	}

	profile.Password = ""
	c.JSON(http.StatusCreated, gin.H{
		"message": "registered",
		"profile": profile,
	})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var profile models.Profile
	if err := config.DB.Where("email = ?", input.Email).First(&profile).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong email or password"})
		return
	}

	token, err := utils.GenerateToken(profile.ID.String(), string(profile.Tier))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"profile": gin.H{
			"id":        profile.ID,
			"email":     profile.Email,
			"full_name": profile.FullName,
			"tier":      profile.Tier,
		},
	})
}

func Me(c *gin.Context) {
	userID := c.GetString("user_id")

	var profile models.Profile
	if err := config.DB.First(&profile, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	profile.Password = ""
	c.JSON(http.StatusOK, profile)
}
