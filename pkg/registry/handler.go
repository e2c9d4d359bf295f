package registry

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"nftmarket/pkg/auth"
	"nftmarket/pkg/market"
	"nftmarket/pkg/response"
)

type RegistryHandler struct {
	token *Token
}

func NewRegistryHandler(token *Token) *RegistryHandler {
	return &RegistryHandler{token: token}
}

func (h *RegistryHandler) RegisterRoutes(router *gin.Engine) {
	caller := auth.RequireCaller()

	router.GET("/registry", h.getToken)
	router.POST("/registry/mint", h.mint)
	router.POST("/registry/approve", caller, h.approve)
	router.POST("/registry/transfer", caller, h.transfer)
	router.GET("/registry/:id/owner", h.ownerOf)
}

type mintRequest struct {
	To string `json:"to" binding:"required"`
}

type approveRequest struct {
	Operator string `json:"operator" binding:"required"`
	AssetID  uint64 `json:"assetId" binding:"required"`
}

type transferRequest struct {
	From    string `json:"from" binding:"required"`
	To      string `json:"to" binding:"required"`
	AssetID uint64 `json:"assetId" binding:"required"`
}

type TokenInfo struct {
	Address     common.Address `json:"address"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	TotalSupply uint64         `json:"totalSupply"`
}

type AssetOwnership struct {
	AssetID  uint64         `json:"assetId"`
	Owner    common.Address `json:"owner"`
	Approved common.Address `json:"approved"`
}

func sendRegistryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, market.ErrUnknownAsset):
		response.SendAPIError(c, http.StatusNotFound, string(market.KindNotFound), err.Error())
	case errors.Is(err, ErrNotOwnerNorApproved), errors.Is(err, ErrTransferFromNotOwner):
		response.SendAPIError(c, http.StatusForbidden, string(market.KindNotOwner), err.Error())
	case errors.Is(err, ErrZeroAddress), errors.Is(err, ErrApproveToOwner):
		response.SendAPIError(c, http.StatusBadRequest, string(market.KindInvalidInput), err.Error())
	default:
		response.SendAPIError(c, http.StatusInternalServerError, string(market.KindInternal), err.Error())
	}
}

func invalid(c *gin.Context, message string) {
	response.SendAPIError(c, http.StatusBadRequest, string(market.KindInvalidInput), message)
}

// @Summary      Registry info
// @Tags         registry
// @Produce      json
// @Success      200  {object}  response.APIResponse{data=TokenInfo}
// @Router       /registry [get]
func (h *RegistryHandler) getToken(c *gin.Context) {
	response.SendAPIResponse(c, http.StatusOK, true, "registry fetched", TokenInfo{
		Address:     h.token.Address(),
		Name:        h.token.Name(),
		Symbol:      h.token.Symbol(),
		TotalSupply: h.token.TotalSupply(),
	})
}

// @Summary      Mint a token
// @Description  Development only. Mints the next token id to the given address.
// @Tags         registry
// @Accept       json
// @Produce      json
// @Param        request  body      mintRequest  true  "Recipient"
// @Success      201      {object}  response.APIResponse{data=AssetOwnership}
// @Failure      400      {object}  response.APIResponse "Invalid address"
// @Router       /registry/mint [post]
func (h *RegistryHandler) mint(c *gin.Context) {
	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err.Error())
		return
	}
	if !common.IsHexAddress(req.To) {
		invalid(c, "invalid recipient address")
		return
	}

	to := common.HexToAddress(req.To)
	id, err := h.token.MintTo(c.Request.Context(), to)
	if err != nil {
		sendRegistryError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusCreated, true, "token minted", AssetOwnership{AssetID: id, Owner: to})
}

// @Summary      Approve an operator
// @Description  The caller must own the token. The zero address revokes the approval.
// @Tags         registry
// @Accept       json
// @Produce      json
// @Param        X-Caller-Address  header    string          true  "Caller address"
// @Param        request           body      approveRequest  true  "Operator and token"
// @Success      200               {object}  response.APIResponse{data=AssetOwnership}
// @Failure      403               {object}  response.APIResponse "Caller is not the owner"
// @Failure      404               {object}  response.APIResponse "Unknown token"
// @Router       /registry/approve [post]
func (h *RegistryHandler) approve(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err.Error())
		return
	}
	if !common.IsHexAddress(req.Operator) {
		invalid(c, "invalid operator address")
		return
	}

	caller, _ := auth.CallerFrom(c)
	ctx := c.Request.Context()
	if err := h.token.Approve(ctx, caller, common.HexToAddress(req.Operator), req.AssetID); err != nil {
		sendRegistryError(c, err)
		return
	}

	h.sendOwnership(c, req.AssetID, "approval updated")
}

// transfer moves a token on behalf of the X-Caller-Address header, which is
// not authenticated. Any client that sends the market's public address acts
// as the market operator and can move every asset approved to it. The
// registry is a development stand-in and must not face untrusted clients.
//
// @Summary      Transfer a token
// @Description  Development only: the caller header is trusted as is.
// @Tags         registry
// @Accept       json
// @Produce      json
// @Param        X-Caller-Address  header    string           true  "Caller address"
// @Param        request           body      transferRequest  true  "Transfer"
// @Success      200               {object}  response.APIResponse{data=AssetOwnership}
// @Failure      403               {object}  response.APIResponse "Caller is not owner nor approved"
// @Failure      404               {object}  response.APIResponse "Unknown token"
// @Router       /registry/transfer [post]
func (h *RegistryHandler) transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err.Error())
		return
	}
	if !common.IsHexAddress(req.From) || !common.IsHexAddress(req.To) {
		invalid(c, "invalid address")
		return
	}

	caller, _ := auth.CallerFrom(c)
	err := h.token.TransferFrom(c.Request.Context(), caller, common.HexToAddress(req.From), common.HexToAddress(req.To), req.AssetID)
	if err != nil {
		sendRegistryError(c, err)
		return
	}

	h.sendOwnership(c, req.AssetID, "token transferred")
}

// @Summary      Token owner
// @Tags         registry
// @Produce      json
// @Param        id   path      int  true  "Token ID"
// @Success      200  {object}  response.APIResponse{data=AssetOwnership}
// @Failure      404  {object}  response.APIResponse "Unknown token"
// @Router       /registry/{id}/owner [get]
func (h *RegistryHandler) ownerOf(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		invalid(c, "invalid token id")
		return
	}

	h.sendOwnership(c, id, "owner fetched")
}

func (h *RegistryHandler) sendOwnership(c *gin.Context, id uint64, message string) {
	ctx := c.Request.Context()
	owner, err := h.token.OwnerOf(ctx, id)
	if err != nil {
		sendRegistryError(c, err)
		return
	}
	approved, err := h.token.GetApproved(ctx, id)
	if err != nil {
		sendRegistryError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, message, AssetOwnership{AssetID: id, Owner: owner, Approved: approved})
}
