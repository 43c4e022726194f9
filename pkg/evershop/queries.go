package evershop

const attributeQuery = `
  query GetAttributes($filters: [FilterInput!]) {
    attributes: attributes(filters: $filters) {
      items {
        uuid
        attributeName
        attributeCode
        attributeId
        type
        isRequired
        displayOnFrontend
        isFilterable
        groups {
          items {
            groupId: attributeGroupId
          }
        }
        options {
          attributeOptionId
          uuid
          optionText
        }
      }
    }
  }
`

const attributeGroupQuery = `
  query GetAttributeGroups($filters: [FilterInput!]) {
    groups: attributeGroups(filters: $filters) {
      items {
        uuid
        groupId: attributeGroupId
        groupName
      }
    }
  }
`

const categoryQuery = `
  query GetCategories($filters: [FilterInput!]) {
    categories(filters: $filters) {
      items {
        categoryId
        uuid
        name
        status
      }
    }
  }
`
