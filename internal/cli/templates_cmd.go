// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// templates_cmd.go - Templates command: manage proofreading prompts.
//
// Command: templates [subcommand]
//
// Subcommands:
//
//	list (default)              List templates, optionally --category
//	show <id|name>              Print a template prompt
//	add --name N --prompt P     Create a custom template
//	edit <id> [--name] [--prompt] [--description] [--category]
//	delete <id> [--yes]         Remove a custom template
//	use <id|name>               Make a template the default
//
// Built-in templates cannot be edited or deleted.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/proofread/internal/config"
	"github.com/jeranaias/proofread/internal/templates"
)

// HandleTemplates dispatches templates subcommands.
func HandleTemplates(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Raw, "yes")
	sub := p.Subcommand()
	if sub == "" {
		sub = "list"
	}

	switch sub {
	case "list", "ls":
		return templatesList(app, args, p.Flag("category"))
	case "show":
		return templatesShow(app, args, p.Positional(1))
	case "add", "new":
		return templatesAdd(app, args, p)
	case "edit", "update":
		return templatesEdit(app, args, p)
	case "delete", "rm":
		return templatesDelete(app, args, p.Positional(1), p.BoolFlag("yes"))
	case "use":
		return templatesUse(app, args, p.Positional(1))
	default:
		return &ValidationError{
			Field:   "subcommand",
			Value:   sub,
			Reason:  "unknown templates subcommand",
			Example: "list, show, add, edit, delete, use",
		}
	}
}

func templatesList(app *App, args Args, category string) error {
	list := app.Templates.All()
	if category != "" {
		c, err := parseCategory(category)
		if err != nil {
			return err
		}
		list = app.Templates.ByCategory(c)
	}

	if args.JSON {
		return NewJSONResponse("templates", list).Print(app.Out)
	}

	current := app.Config.Proofread.Template
	for _, t := range list {
		marker := "  "
		if t.ID == current || strings.EqualFold(t.Name, current) {
			marker = HighlightStyle.Render("* ")
		}
		kind := DimStyle.Render("custom")
		if t.BuiltIn {
			kind = DimStyle.Render("built-in")
		}
		fmt.Fprintf(app.Out, "%s%-24s %-10s %s  %s\n", marker, t.Name, t.Category, kind, DimStyle.Render(t.ID))
		if t.Description != "" && !args.Quiet {
			fmt.Fprintf(app.Out, "    %s\n", DimStyle.Render(t.Description))
		}
	}
	return nil
}

func lookupTemplate(app *App, key string) (templates.Template, error) {
	if key == "" {
		return templates.Template{}, ErrMissingArgument("template", "proofread templates show formal")
	}
	t, ok := app.Templates.Get(key)
	if !ok {
		return templates.Template{}, &NotFoundError{Resource: "template", ID: key}
	}
	return t, nil
}

func templatesShow(app *App, args Args, key string) error {
	t, err := lookupTemplate(app, key)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("templates show", t).Print(app.Out)
	}
	fmt.Fprintln(app.Out, TitleStyle.Render(t.Name))
	fmt.Fprintf(app.Out, "%s%s\n", RenderLabel("ID:"), t.ID)
	fmt.Fprintf(app.Out, "%s%s\n", RenderLabel("Category:"), t.Category)
	if t.Description != "" {
		fmt.Fprintf(app.Out, "%s%s\n", RenderLabel("Description:"), t.Description)
	}
	fmt.Fprintf(app.Out, "\n%s\n", t.Prompt)
	return nil
}

func templatesAdd(app *App, args Args, p *ArgParser) error {
	t := templates.Template{
		Name:        p.Flag("name"),
		Prompt:      p.Flag("prompt"),
		Description: p.Flag("description"),
	}
	if v := p.Flag("category"); v != "" {
		c, err := parseCategory(v)
		if err != nil {
			return err
		}
		t.Category = c
	}
	added, err := app.Templates.Add(t)
	if err != nil {
		return templateError(err)
	}
	if args.JSON {
		return NewJSONResponse("templates add", added).Print(app.Out)
	}
	fmt.Fprintf(app.Out, "%s %s (%s)\n", SuccessStyle.Render("Added"), added.Name, added.ID)
	return nil
}

func templatesEdit(app *App, args Args, p *ArgParser) error {
	t, err := lookupTemplate(app, p.Positional(1))
	if err != nil {
		return err
	}
	if v := p.Flag("name"); v != "" {
		t.Name = v
	}
	if v := p.Flag("prompt"); v != "" {
		t.Prompt = v
	}
	if v := p.Flag("description"); v != "" {
		t.Description = v
	}
	if v := p.Flag("category"); v != "" {
		c, err := parseCategory(v)
		if err != nil {
			return err
		}
		t.Category = c
	}
	if err := app.Templates.Update(t); err != nil {
		return templateError(err)
	}
	if args.JSON {
		return NewJSONResponse("templates edit", t).Print(app.Out)
	}
	fmt.Fprintf(app.Out, "%s %s\n", SuccessStyle.Render("Updated"), t.Name)
	return nil
}

func templatesDelete(app *App, args Args, key string, yes bool) error {
	t, err := lookupTemplate(app, key)
	if err != nil {
		return err
	}
	if t.BuiltIn {
		return templateError(templates.ErrBuiltIn)
	}
	ok, err := app.confirm("delete template "+t.Name, yes, args.JSON)
	if err != nil || !ok {
		return err
	}
	if err := app.Templates.Delete(t.ID); err != nil {
		return templateError(err)
	}
	if args.JSON {
		return NewJSONResponse("templates delete", map[string]string{"id": t.ID}).Print(app.Out)
	}
	fmt.Fprintf(app.Out, "%s %s\n", SuccessStyle.Render("Deleted"), t.Name)
	return nil
}

// templatesUse stores the template ID as proofread.template.
func templatesUse(app *App, args Args, key string) error {
	t, err := lookupTemplate(app, key)
	if err != nil {
		return err
	}
	cfg, err := config.LoadForEdit(app.ConfigPath)
	if err != nil {
		return err
	}
	cfg.Proofread.Template = t.ID
	path := tomlPath(app.ConfigPath)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("templates use", t).Print(app.Out)
	}
	fmt.Fprintf(app.Out, "%s %s is now the default template\n", SuccessStyle.Render("OK"), t.Name)
	return nil
}

func parseCategory(name string) (templates.Category, error) {
	c, ok := templates.ParseCategory(name)
	if !ok {
		names := make([]string, 0, len(templates.Categories()))
		for _, c := range templates.Categories() {
			names = append(names, string(c))
		}
		return "", &ValidationError{Field: "category", Value: name, Reason: "unknown category", Example: strings.Join(names, ", ")}
	}
	return c, nil
}

// templateError turns store errors into CLI errors with the right exit code.
func templateError(err error) error {
	switch {
	case errors.Is(err, templates.ErrBuiltIn):
		return NewValidationError("template", "", "built-in templates cannot be changed; add a copy instead")
	case errors.Is(err, templates.ErrInvalid):
		return &ValidationError{Field: "template", Reason: err.Error(), Example: `proofread templates add --name Formal --prompt "Rewrite formally."`}
	}
	return err
}
