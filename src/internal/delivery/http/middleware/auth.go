package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"

	httpError "delivery-service/src/pkg/http-error"
	"delivery-service/src/pkg/token"
	"delivery-service/src/pkg/utils"
)

const authLocalKey = "auth"

// VerifyBearer validates the Authorization header and stores the verified
// claim in the request locals.
func VerifyBearer(v *viper.Viper) fiber.Handler {
	secret := []byte(v.GetString("jwt.secret"))

	return func(ctx *fiber.Ctx) error {
		header := ctx.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			errObj := httpError.NewBadRequest()
			errObj.Message = "missing bearer token"
			errObj.ResponseCode = fiber.StatusUnauthorized
			return utils.ResponseError(errObj, ctx)
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !parsed.Valid {
			errObj := httpError.NewBadRequest()
			errObj.Message = "invalid token"
			errObj.ResponseCode = fiber.StatusUnauthorized
			return utils.ResponseError(errObj, ctx)
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			errObj := httpError.NewBadRequest()
			errObj.Message = "invalid token claims"
			errObj.ResponseCode = fiber.StatusUnauthorized
			return utils.ResponseError(errObj, ctx)
		}

		claim := &token.Claim{}
		if iss, ok := claims["iss"].(string); ok {
			claim.Iss = iss
		}
		if aud, ok := claims["aud"].(string); ok {
			claim.Aud = aud
		}
		if metadata, ok := claims["metadata"].(map[string]interface{}); ok {
			if userID, ok := metadata["user_id"].(string); ok {
				claim.Metadata.UserID = userID
			}
			if fullName, ok := metadata["full_name"].(string); ok {
				claim.Metadata.FullName = fullName
			}
		}

		if claim.Metadata.UserID == "" {
			errObj := httpError.NewBadRequest()
			errObj.Message = "token has no subject"
			errObj.ResponseCode = fiber.StatusUnauthorized
			return utils.ResponseError(errObj, ctx)
		}

		ctx.Locals(authLocalKey, claim)
		return ctx.Next()
	}
}

// GetUser returns the claim stored by VerifyBearer.
func GetUser(ctx *fiber.Ctx) *token.Claim {
	claim, ok := ctx.Locals(authLocalKey).(*token.Claim)
	if !ok {
		return &token.Claim{}
	}
	return claim
}
