package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// idParam parses the ":id" path parameter shared by most resource routes.
func idParam(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
