package market

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"nftmarket/pkg/auth"
	"nftmarket/pkg/response"
	"nftmarket/pkg/units"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

type MarketHandler struct {
	service      Service
	requireAdmin gin.HandlerFunc
}

// NewMarketHandler wires the market routes. requireAdmin guards the owner
// operated routes and deposits.
func NewMarketHandler(service Service, requireAdmin gin.HandlerFunc) *MarketHandler {
	return &MarketHandler{service: service, requireAdmin: requireAdmin}
}

func (h *MarketHandler) RegisterRoutes(router *gin.Engine) {
	caller := auth.RequireCaller()

	router.POST("/items", caller, h.createMarketItem)
	router.POST("/items/buy", caller, h.buyMarketItem)
	router.DELETE("/items/:id", caller, h.deleteMarketItem)
	router.GET("/items/active", h.fetchActiveItems)
	router.GET("/items/created", caller, h.fetchMyCreatedItems)
	router.GET("/items/purchased", caller, h.fetchMyPurchasedItems)
	router.GET("/items/:id", h.getItem)

	router.GET("/market", h.getMarket)
	router.PUT("/market/fee", h.requireAdmin, caller, h.setListingFee)
	router.PUT("/market/owner", h.requireAdmin, caller, h.changeOwner)
	router.POST("/market/upgrade", h.requireAdmin, caller, h.upgrade)

	router.POST("/accounts/:address/deposit", h.requireAdmin, h.deposit)
	router.GET("/accounts/:address/balance", h.balanceOf)
}

type createItemRequest struct {
	AssetContract string `json:"assetContract" binding:"required"`
	AssetID       uint64 `json:"assetId"`
	Price         string `json:"price" binding:"required"`
	Value         string `json:"value"`
}

type buyItemRequest struct {
	AssetContract string `json:"assetContract" binding:"required"`
	AssetID       uint64 `json:"assetId"`
	Value         string `json:"value"`
}

type setFeeRequest struct {
	Fee string `json:"fee" binding:"required"`
}

type changeOwnerRequest struct {
	Owner string `json:"owner" binding:"required"`
}

type upgradeRequest struct {
	Version int `json:"version" binding:"required"`
}

type depositRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type balanceResponse struct {
	Address    common.Address `json:"address"`
	Balance    string         `json:"balance"`
	BalanceWei string         `json:"balanceWei"`
}

// statusFor maps a failure to its HTTP status.
func statusFor(kind Kind) int {
	switch kind {
	case KindNotFound, KindNotListed:
		return http.StatusNotFound
	case KindNotOwner:
		return http.StatusForbidden
	case KindApprovalRequired, KindStaleApproval, KindStaleListing, KindAlreadyFinalized, KindUpgrade:
		return http.StatusConflict
	case KindInvalidFeeAmount, KindInvalidPaymentAmount, KindOutOfBounds, KindInvalidInput:
		return http.StatusBadRequest
	case KindInsufficientFunds:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func sendError(c *gin.Context, err error) {
	kind := KindOf(err)
	response.SendAPIError(c, statusFor(kind), string(kind), err.Error())
}

func sendInvalid(c *gin.Context, message string) {
	response.SendAPIError(c, http.StatusBadRequest, string(KindInvalidInput), message)
}

func parseAddress(raw string) (common.Address, bool) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// parseValue reads an optional ether amount; empty means zero.
func parseValue(raw string) (*big.Int, error) {
	if raw == "" {
		return new(big.Int), nil
	}
	return units.ParseEther(raw)
}

func parsePaging(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if err != nil || page < 1 {
		return 0, 0, false
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		return 0, 0, false
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, true
}

func callerOf(c *gin.Context) common.Address {
	addr, _ := auth.CallerFrom(c)
	return addr
}

// @Summary      List an asset
// @Description  Creates a market item for an asset the caller owns and has approved to the market. The value must equal the listing fee.
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        X-Caller-Address  header  string             true  "Caller address"
// @Param        request           body    createItemRequest  true  "Listing (amounts in ether)"
// @Success      201  {object}  response.APIResponse{data=MarketItem}
// @Failure      400  {object}  response.APIResponse "Invalid input or fee amount"
// @Failure      402  {object}  response.APIResponse "Insufficient funds"
// @Failure      403  {object}  response.APIResponse "Caller does not own the asset"
// @Failure      409  {object}  response.APIResponse "Asset not approved to market"
// @Failure      500  {object}  response.APIResponse "Internal server error"
// @Router       /items [post]
func (h *MarketHandler) createMarketItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalid(c, err.Error())
		return
	}
	contract, ok := parseAddress(req.AssetContract)
	if !ok {
		sendInvalid(c, "invalid asset contract")
		return
	}
	price, err := units.ParseEther(req.Price)
	if err != nil {
		sendInvalid(c, err.Error())
		return
	}
	value, err := parseValue(req.Value)
	if err != nil {
		sendInvalid(c, err.Error())
		return
	}

	call := Call{Sender: callerOf(c), Value: value}
	item, err := h.service.CreateMarketItem(c.Request.Context(), call, contract, req.AssetID, price)
	if err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusCreated, true, "market item created", item)
}

// @Summary      Buy a listed asset
// @Description  Settles the active listing of an asset. The value must equal the item price.
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        X-Caller-Address  header  string          true  "Caller address"
// @Param        request           body    buyItemRequest  true  "Purchase (value in ether)"
// @Success      200  {object}  response.APIResponse{data=MarketItem}
// @Failure      400  {object}  response.APIResponse "Invalid input or payment amount"
// @Failure      402  {object}  response.APIResponse "Insufficient funds"
// @Failure      404  {object}  response.APIResponse "Asset not listed"
// @Failure      409  {object}  response.APIResponse "Listing no longer executable"
// @Failure      500  {object}  response.APIResponse "Internal server error"
// @Router       /items/buy [post]
func (h *MarketHandler) buyMarketItem(c *gin.Context) {
	var req buyItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalid(c, err.Error())
		return
	}
	contract, ok := parseAddress(req.AssetContract)
	if !ok {
		sendInvalid(c, "invalid asset contract")
		return
	}
	value, err := parseValue(req.Value)
	if err != nil {
		sendInvalid(c, err.Error())
		return
	}

	call := Call{Sender: callerOf(c), Value: value}
	item, err := h.service.BuyMarketItem(c.Request.Context(), call, contract, req.AssetID)
	if err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "market item sold", item)
}

// @Summary      Delete a listing
// @Description  Withdraws an active listing. Only the seller can delete, and only while the asset is still approved to the market. The listing fee is not refunded.
// @Tags         items
// @Produce      json
// @Param        X-Caller-Address  header  string  true  "Caller address"
// @Param        id                path    int     true  "Item ID"
// @Success      200  {object}  response.APIResponse{data=MarketItem}
// @Failure      400  {object}  response.APIResponse "Invalid item ID"
// @Failure      403  {object}  response.APIResponse "Caller is not the seller"
// @Failure      404  {object}  response.APIResponse "Item not found"
// @Failure      409  {object}  response.APIResponse "Item already finalized or approval revoked"
// @Failure      500  {object}  response.APIResponse "Internal server error"
// @Router       /items/{id} [delete]
func (h *MarketHandler) deleteMarketItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		sendInvalid(c, "invalid item id")
		return
	}

	item, err := h.service.DeleteMarketItem(c.Request.Context(), callerOf(c), id)
	if err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "market item deleted", item)
}

// @Summary      Get a market item
// @Tags         items
// @Produce      json
// @Param        id   path      int  true  "Item ID"
// @Success      200  {object}  response.APIResponse{data=MarketItem}
// @Failure      400  {object}  response.APIResponse "Invalid item ID"
// @Failure      404  {object}  response.APIResponse "Item not found"
// @Router       /items/{id} [get]
func (h *MarketHandler) getItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		sendInvalid(c, "invalid item id")
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), id)
	if err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "market item fetched", item)
}

// @Summary      Active listings
// @Description  Pages through items that can be bought, ascending by id.
// @Tags         items
// @Produce      json
// @Param        page  query     int  false  "Page number (default 1)"
// @Param        size  query     int  false  "Page size (default 10, max 100)"
// @Success      200   {object}  response.APIResponse{data=Page}
// @Failure      400   {object}  response.APIResponse "Invalid paging or out of bounds"
// @Router       /items/active [get]
func (h *MarketHandler) fetchActiveItems(c *gin.Context) {
	page, size, ok := parsePaging(c)
	if !ok {
		sendInvalid(c, "invalid page or size")
		return
	}

	result, err := h.service.FetchActiveItems(c.Request.Context(), page, size)
	if err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "active items fetched", result)
}

// @Summary      Caller's listings
// @Description  Pages through every item the caller listed, in any state.
// @Tags         items
// @Produce      json
// @Param        X-Caller-Address  header  string  true   "Caller address"
// @Param        page              query   int     false  "Page number (default 1)"
// @Param        size              query   int     false  "Page size (default 10, max 100)"
// @Success      200   {object}  response.APIResponse{data=Page}
// @Failure      400   {object}  response.APIResponse "Invalid paging or out of bounds"
// @Router       /items/created [get]
func (h *MarketHandler) fetchMyCreatedItems(c *gin.Context) {
	page, size, ok := parsePaging(c)
	if !ok {
		sendInvalid(c, "invalid page or size")
		return
	}

	result, err := h.service.FetchMyCreatedItems(c.Request.Context(), callerOf(c), page, size)
	if err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "created items fetched", result)
}

// @Summary      Caller's purchases
// @Tags         items
// @Produce      json
// @Param        X-Caller-Address  header  string  true   "Caller address"
// @Param        page              query   int     false  "Page number (default 1)"
// @Param        size              query   int     false  "Page size (default 10, max 100)"
// @Success      200   {object}  response.APIResponse{data=Page}
// @Failure      400   {object}  response.APIResponse "Invalid paging or out of bounds"
// @Router       /items/purchased [get]
func (h *MarketHandler) fetchMyPurchasedItems(c *gin.Context) {
	page, size, ok := parsePaging(c)
	if !ok {
		sendInvalid(c, "invalid page or size")
		return
	}

	result, err := h.service.FetchMyPurchasedItems(c.Request.Context(), callerOf(c), page, size)
	if err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "purchased items fetched", result)
}

// @Summary      Market info
// @Description  Owner, listing fee, item count and logic version.
// @Tags         market
// @Produce      json
// @Success      200  {object}  response.APIResponse{data=MarketInfo}
// @Failure      500  {object}  response.APIResponse "Internal server error"
// @Router       /market [get]
func (h *MarketHandler) getMarket(c *gin.Context) {
	info, err := h.service.Info(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "market fetched", info)
}

// @Summary      Set listing fee
// @Tags         market
// @Accept       json
// @Produce      json
// @Param        X-Caller-Address  header  string         true  "Caller address"
// @Param        X-Admin-Token     header  string         true  "Admin token"
// @Param        request           body    setFeeRequest  true  "Fee in ether"
// @Success      200  {object}  response.APIResponse
// @Failure      400  {object}  response.APIResponse "Invalid fee"
// @Failure      403  {object}  response.APIResponse "Caller is not the market owner"
// @Router       /market/fee [put]
func (h *MarketHandler) setListingFee(c *gin.Context) {
	var req setFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalid(c, err.Error())
		return
	}
	fee, err := units.ParseEther(req.Fee)
	if err != nil {
		sendInvalid(c, err.Error())
		return
	}

	if err := h.service.SetListingFee(c.Request.Context(), callerOf(c), fee); err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "listing fee updated", nil)
}

// @Summary      Change market owner
// @Tags         market
// @Accept       json
// @Produce      json
// @Param        X-Caller-Address  header  string              true  "Caller address"
// @Param        X-Admin-Token     header  string              true  "Admin token"
// @Param        request           body    changeOwnerRequest  true  "New owner"
// @Success      200  {object}  response.APIResponse
// @Failure      400  {object}  response.APIResponse "Invalid owner"
// @Failure      403  {object}  response.APIResponse "Caller is not the market owner"
// @Router       /market/owner [put]
func (h *MarketHandler) changeOwner(c *gin.Context) {
	var req changeOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalid(c, err.Error())
		return
	}
	owner, ok := parseAddress(req.Owner)
	if !ok {
		sendInvalid(c, "invalid owner address")
		return
	}

	if err := h.service.ChangeOwner(c.Request.Context(), callerOf(c), owner); err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "market owner changed", nil)
}

// @Summary      Upgrade market logic
// @Description  Swaps the logic version in place. The new storage layout must only append fields.
// @Tags         market
// @Accept       json
// @Produce      json
// @Param        X-Caller-Address  header  string          true  "Caller address"
// @Param        X-Admin-Token     header  string          true  "Admin token"
// @Param        request           body    upgradeRequest  true  "Target logic version"
// @Success      200  {object}  response.APIResponse{data=MarketInfo}
// @Failure      403  {object}  response.APIResponse "Caller is not the market owner"
// @Failure      409  {object}  response.APIResponse "Upgrade rejected"
// @Router       /market/upgrade [post]
func (h *MarketHandler) upgrade(c *gin.Context) {
	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalid(c, err.Error())
		return
	}

	if err := h.service.Upgrade(c.Request.Context(), callerOf(c), req.Version); err != nil {
		sendError(c, err)
		return
	}

	info, err := h.service.Info(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "market logic upgraded", info)
}

// @Summary      Deposit native value
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        X-Admin-Token  header  string          true  "Admin token"
// @Param        address        path    string          true  "Account address"
// @Param        request        body    depositRequest  true  "Amount in ether"
// @Success      200  {object}  response.APIResponse{data=balanceResponse}
// @Failure      400  {object}  response.APIResponse "Invalid address or amount"
// @Router       /accounts/{address}/deposit [post]
func (h *MarketHandler) deposit(c *gin.Context) {
	account, ok := parseAddress(c.Param("address"))
	if !ok {
		sendInvalid(c, "invalid address")
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendInvalid(c, err.Error())
		return
	}
	amount, err := units.ParseEther(req.Amount)
	if err != nil {
		sendInvalid(c, err.Error())
		return
	}

	balance, err := h.service.Deposit(c.Request.Context(), account, amount)
	if err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "deposit credited", newBalanceResponse(account, balance))
}

// @Summary      Account balance
// @Tags         accounts
// @Produce      json
// @Param        address  path      string  true  "Account address"
// @Success      200      {object}  response.APIResponse{data=balanceResponse}
// @Failure      400      {object}  response.APIResponse "Invalid address"
// @Router       /accounts/{address}/balance [get]
func (h *MarketHandler) balanceOf(c *gin.Context) {
	account, ok := parseAddress(c.Param("address"))
	if !ok {
		sendInvalid(c, "invalid address")
		return
	}

	balance, err := h.service.BalanceOf(c.Request.Context(), account)
	if err != nil {
		sendError(c, err)
		return
	}

	response.SendAPIResponse(c, http.StatusOK, true, "balance fetched", newBalanceResponse(account, balance))
}

func newBalanceResponse(account common.Address, balance *big.Int) balanceResponse {
	return balanceResponse{
		Address:    account,
		Balance:    units.FormatEther(balance),
		BalanceWei: balance.String(),
	}
}
